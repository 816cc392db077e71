package envutil

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// GetenvDefault gets the value of an environment variable, or returns the
// specified default value if that variable is not set.
func GetenvDefault(name, defaultValue string) string {
	val, found := os.LookupEnv(name)
	if !found {
		return defaultValue
	}
	return val
}

// GetenvDefaultInt64 gets an environment variable as an int64, or else returns the default
func GetenvDefaultInt64(name string, defaultVal int64) int64 {
	val, found := os.LookupEnv(name)
	if !found {
		return defaultVal
	}
	intVal, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		log.Fatalf("environment variable %s should be an integer: %v", name, err)
	}
	return intVal
}

// GetenvList gets an environment variable as a comma-separated list. Empty
// elements and surrounding whitespace are dropped; an unset or empty variable
// yields a nil slice.
func GetenvList(name string) []string {
	val, found := os.LookupEnv(name)
	if !found {
		return nil
	}
	var items []string
	for _, item := range strings.Split(val, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// MustGetenv gets the value of an environment variable, or exits if it has no value.
func MustGetenv(name string) string {
	val, found := os.LookupEnv(name)
	if !found {
		log.Fatalf("environment variable %s is required but not set", name)
	}
	return val
}
