package perm

import (
	"slices"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestSetHasPermission(t *testing.T) {
	s := NewSet()
	id := uuid.New()
	s.Grant(id, "doublejump.use", "doublejump.limit.*", " Admin.Tools ")

	tests := []struct {
		permission string
		want       bool
	}{
		{"doublejump.use", true},
		{"DoubleJump.Use", true},
		{"doublejump.limit.vip", true},
		{"doublejump.limit.vip.plus", true},
		{"doublejump.limit", false},
		{"doublejump.admin", false},
		{"admin.tools", true},
		{"", false},
	}
	for _, tt := range tests {
		if got := s.HasPermission(id, tt.permission); got != tt.want {
			t.Fatalf("HasPermission(%q) = %v, want %v", tt.permission, got, tt.want)
		}
	}

	if s.HasPermission(uuid.New(), "doublejump.use") {
		t.Fatalf("unknown player should hold nothing")
	}
}

func TestSetWildcard(t *testing.T) {
	s := NewSet()
	id := uuid.New()
	s.Grant(id, Wildcard)

	if !s.HasPermission(id, "anything.at.all") {
		t.Fatalf("wildcard should match everything")
	}
}

func TestSetRevoke(t *testing.T) {
	s := NewSet()
	id := uuid.New()
	s.Grant(id, "a.b", "a.*")

	if !s.Revoke(id, "a.*") {
		t.Fatalf("revoke of held permission should return true")
	}
	if s.Revoke(id, "a.*") {
		t.Fatalf("second revoke should return false")
	}
	if s.HasPermission(id, "a.c") {
		t.Fatalf("revoked wildcard still matches")
	}
	if got := s.Permissions(id); !slices.Equal(got, []string{"a.b"}) {
		t.Fatalf("permissions = %v, want [a.b]", got)
	}

	s.Revoke(id, "a.b")
	if s.Players() != 0 {
		t.Fatalf("players = %d, want 0 after revoking everything", s.Players())
	}
}

func TestSetConcurrentAccess(t *testing.T) {
	s := NewSet()
	id := uuid.New()

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 100 {
				s.Grant(id, "x.y")
				s.Revoke(id, "x.y")
			}
		}()
		go func() {
			defer wg.Done()
			for range 100 {
				s.HasPermission(id, "x.y")
				s.Permissions(id)
			}
		}()
	}
	wg.Wait()
}
