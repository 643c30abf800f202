package config

import (
	"os"
	"strings"
)

// FromEnv applies environment overrides on top of c.
func FromEnv(c *Config) {
	ApplyEnv(c, os.Getenv)
}

// ApplyEnv overrides fields from getenv. PORT and MONGODB_URI are the
// conventional hosting variables; TODOLIST_* win over them.
func ApplyEnv(c *Config, getenv func(string) string) {
	if port := strings.TrimSpace(getenv("PORT")); port != "" {
		c.Server.Addr = ":" + port
	}
	if uri := getenv("MONGODB_URI"); uri != "" {
		c.Store.Mongo.URI = uri
	}

	setString(&c.Server.Addr, getenv("TODOLIST_ADDR"))
	setString(&c.Store.Driver, getenv("TODOLIST_STORE"))
	if dir := strings.TrimSpace(getenv("TODOLIST_DATA_DIR")); dir != "" {
		c.Store.DataDir = dir
		c.Store.SQLitePath = dir + "/tasks.db"
	}
	setString(&c.Store.SQLitePath, getenv("TODOLIST_SQLITE_PATH"))
	setString(&c.Store.Mongo.URI, getenv("TODOLIST_MONGO_URI"))
	setString(&c.Store.Mongo.Database, getenv("TODOLIST_MONGO_DATABASE"))
	setString(&c.Log.Level, getenv("TODOLIST_LOG_LEVEL"))
	setString(&c.Log.Format, getenv("TODOLIST_LOG_FORMAT"))
	setString(&c.Client.BaseURL, getenv("TODOLIST_API_URL"))
}

func setString(dst *string, val string) {
	if val = strings.TrimSpace(val); val != "" {
		*dst = val
	}
}
