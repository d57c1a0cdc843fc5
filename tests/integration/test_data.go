package integration

import (
	"fmt"
	"time"
)

// TestUser generates unique test user credentials using timestamp
func TestUser(suffix string) (email, password string) {
	ts := time.Now().UnixNano()
	email = fmt.Sprintf("prueba-%d-%s@mopc.gob.do", ts, suffix)
	password = "ContraseñaSegura123!"
	return
}
