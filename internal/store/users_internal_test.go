package store

import (
	"strings"
	"testing"
)

func TestUpsertQuery_PerDriver(t *testing.T) {
	tests := []struct {
		driver  string
		want    string
		notWant string
	}{
		{"sqlite", "ON CONFLICT (provider, subject)", "ON DUPLICATE KEY"},
		{"postgres", "ON CONFLICT (provider, subject)", "ON DUPLICATE KEY"},
		{"mysql", "ON DUPLICATE KEY UPDATE", "ON CONFLICT"},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			q := upsertQuery(tt.driver)
			if !strings.Contains(q, tt.want) {
				t.Errorf("query for %s lacks %q", tt.driver, tt.want)
			}
			if strings.Contains(q, tt.notWant) {
				t.Errorf("query for %s contains %q", tt.driver, tt.notWant)
			}
			if n := strings.Count(q, "?"); n != 9 {
				t.Errorf("placeholders = %d, want 9", n)
			}
		})
	}
}

func TestRoleFor(t *testing.T) {
	tests := []struct {
		email, admin, want string
	}{
		{"pustakawan@sekolah.id", "pustakawan@sekolah.id", RoleAdmin},
		{"Pustakawan@Sekolah.id", "pustakawan@sekolah.id", RoleAdmin},
		{"pustakawan@sekolah.id", " PUSTAKAWAN@sekolah.id ", RoleAdmin},
		{"andi@sekolah.id", "pustakawan@sekolah.id", RoleUser},
		{"", "", RoleUser},
	}
	for _, tt := range tests {
		if got := roleFor(tt.email, tt.admin); got != tt.want {
			t.Errorf("roleFor(%q, %q) = %q, want %q", tt.email, tt.admin, got, tt.want)
		}
	}
}
