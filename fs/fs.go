// Package appfs holds the files embedded into the binaries: SQL migrations and email templates.
package appfs

import "embed"

//go:embed migrations/*.sql assets/templates/email/*.txt
var FS embed.FS
