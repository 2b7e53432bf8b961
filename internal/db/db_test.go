package db

import (
	"testing"

	"github.com/eduwrite/apiserver/config"
	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "edu",
		Password: "p@ss",
		DBName:   "eduwrite",
	}
	assert.Equal(t, "postgres://edu:p%40ss@db:5433/eduwrite?sslmode=disable", DSN(cfg))

	cfg.UseSSL = true
	assert.Equal(t, "postgres://edu:p%40ss@db:5433/eduwrite?sslmode=require", DSN(cfg))

	cfg.URL = " postgres://other/db "
	assert.Equal(t, "postgres://other/db", DSN(cfg))
}
