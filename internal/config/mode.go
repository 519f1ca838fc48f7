package config

// DeploymentMode classifies the running deployment. It is computed once at
// startup and passed down; nothing re-derives it from raw flags later.
type DeploymentMode string

const (
	ModeProduction  DeploymentMode = "production"
	ModeStaging     DeploymentMode = "staging"
	ModeDevelopment DeploymentMode = "development"
)

// DetermineMode resolves the deployment mode from the explicit operator
// override and the build-mode string. Production is true only when the
// override is explicitly set or the build mode is exactly "production".
func DetermineMode(forceProduction bool, buildMode string) DeploymentMode {
	if forceProduction || buildMode == "production" {
		return ModeProduction
	}
	if buildMode == "staging" {
		return ModeStaging
	}
	return ModeDevelopment
}

// IsProduction reports whether the mode is the production deployment.
func (m DeploymentMode) IsProduction() bool {
	return m == ModeProduction
}

// AllowsSendOverride reports whether the non-production send override may be
// offered. It must never be true in production.
func (m DeploymentMode) AllowsSendOverride() bool {
	return !m.IsProduction()
}

// Mode returns the deployment mode for this configuration.
func (c *Config) Mode() DeploymentMode {
	return DetermineMode(c.ForceProduction, c.BuildMode)
}
