// Package errcode defines the stable error-code taxonomy shared by every
// privileged orchestrator (runtime install/start/repair, uninstall, update
// check/download/apply). Codes are strings rather than an int enum because
// they cross the host-process boundary verbatim as JSON.
package errcode

// Code is a stable, machine-checkable error identifier.
type Code string

const (
	Timeout                     Code = "timeout"
	SudoPolicyDenied            Code = "sudo_policy_denied"
	SudoTTYRequired             Code = "sudo_tty_required"
	PrivilegeRequired           Code = "privilege_required"
	ShellSpawnError             Code = "shell_spawn_error"
	CommandFailed               Code = "command_failed"
	UnsupportedPlatform         Code = "unsupported_platform"
	NotImplemented              Code = "not_implemented"
	MissingDependency           Code = "missing_dependency"
	InvalidConfirmation         Code = "invalid_confirmation"
	CheckFailed                 Code = "check_failed"
	IPCIncompatible             Code = "ipc_incompatible"
	RemoteSchemaIncompatible    Code = "remote_schema_incompatible"
	SchemaMigrationUnavailable  Code = "schema_migration_unavailable"
	DownloadFailed              Code = "download_failed"
	ChecksumMismatch            Code = "checksum_mismatch"
	NoUpdateAvailableForDownload Code = "no_update_available_for_download"
	NoStagedUpdate              Code = "no_staged_update"
	RestartFailed               Code = "restart_failed"
	RestartUnavailable          Code = "restart_unavailable"
)
