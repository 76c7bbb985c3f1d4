package totp

// GenerateBackupCodesFrom exposes the draw seam of GenerateBackupCodes.
var GenerateBackupCodesFrom = generateBackupCodes
