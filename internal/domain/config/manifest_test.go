package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseManifest_ValidManifest(t *testing.T) {
	t.Parallel()

	data := []byte(`
version: 1
profile: prod
environments:
  prod:
    java_opts: "-Xms4G -Xmx4G"
apt:
  packages:
    - docker.io
    - openjdk-17-jdk
firewall:
  ports: [8080, 1883, 5683]
`)

	m, err := ParseManifest(data)
	require.NoError(t, err)

	assert.Equal(t, 1, m.Version)
	assert.Equal(t, ProfileProd, m.Profile)

	sections := m.Sections()
	assert.Contains(t, sections, "apt")
	assert.Contains(t, sections, "firewall")
	assert.NotContains(t, sections, "version")
	assert.NotContains(t, sections, "environments")
}

func TestParseManifest_DefaultsToDevProfile(t *testing.T) {
	t.Parallel()

	m, err := ParseManifest([]byte("apt:\n  packages: [curl]\n"))
	require.NoError(t, err)

	assert.Equal(t, 1, m.Version)
	assert.Equal(t, ProfileDev, m.Profile)
}

func TestParseManifest_RejectsUnknownProfile(t *testing.T) {
	t.Parallel()

	_, err := ParseManifest([]byte("profile: staging\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staging")
}

func TestParseManifest_RejectsUnsupportedVersion(t *testing.T) {
	t.Parallel()

	_, err := ParseManifest([]byte("version: 2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version")
}

func TestParseManifest_RejectsInvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := ParseManifest([]byte("profile: [unclosed"))
	require.Error(t, err)
}

func TestActiveEnvironment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		manifest string
		want     Environment
	}{
		{
			name:     "dev built-in sizing",
			manifest: "profile: dev\n",
			want:     Environment{JavaOpts: "-Xms512M -Xmx512M", DBPoolSize: 5},
		},
		{
			name:     "prod built-in sizing",
			manifest: "profile: prod\n",
			want:     Environment{JavaOpts: "-Xms2G -Xmx2G", DBPoolSize: 20},
		},
		{
			name: "manifest overrides java opts only",
			manifest: `profile: prod
environments:
  prod:
    java_opts: "-Xms8G -Xmx8G"
`,
			want: Environment{JavaOpts: "-Xms8G -Xmx8G", DBPoolSize: 20},
		},
		{
			name: "override for inactive profile is ignored",
			manifest: `profile: dev
environments:
  prod:
    db_pool_size: 100
`,
			want: Environment{JavaOpts: "-Xms512M -Xmx512M", DBPoolSize: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, err := ParseManifest([]byte(tt.manifest))
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.ActiveEnvironment())
		})
	}
}
