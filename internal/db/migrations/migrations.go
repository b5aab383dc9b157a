package migrations

import "embed"

// Migrations contiene los scripts goose embebidos en el binario.
//
//go:embed *.sql
var Migrations embed.FS
