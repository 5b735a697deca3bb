package integration

import (
	"fmt"
	"time"
)

// UniqueEmail generates a unique test email using a timestamp
func UniqueEmail(suffix string) string {
	return fmt.Sprintf("test-%d-%s@example.com", time.Now().UnixNano(), suffix)
}

// TestPassword is the shared password for seeded accounts
const TestPassword = "TestPassword123!"
