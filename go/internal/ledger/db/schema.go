package db

import _ "embed"

// Schema creates the auction tables if they do not exist.
//
//go:embed schema.sql
var Schema string
