package common

// File modes used for everything flarewatch writes.
const (
	// FilePermissionSecure is for config files and stored credentials.
	FilePermissionSecure = 0600

	// FilePermissionNormal is for generated CSV and report files.
	FilePermissionNormal = 0644

	// DirPermissionSecure is for directories holding secrets.
	DirPermissionSecure = 0700

	// DirPermissionNormal is for output directories.
	DirPermissionNormal = 0755
)
