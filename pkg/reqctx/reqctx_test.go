package reqctx

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/Alijeyrad/medicenter_backend/pkg/constants"
)

type claims struct {
	id      uuid.UUID
	expired bool
}

func (c claims) GetUserID() uuid.UUID     { return c.id }
func (c claims) GetSessionID() *uuid.UUID { return nil }
func (c claims) GetTokenType() string     { return "access" }
func (c claims) IsExpired() bool          { return c.expired }

func TestActor(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{"anonymous", context.Background(), constants.SystemActor},
		{"authenticated", WithClaims(context.Background(), claims{id: id}), id.String()},
		{"nil user id", WithClaims(context.Background(), claims{}), constants.SystemActor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Actor(tt.ctx); got != tt.want {
				t.Errorf("Actor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsAuthenticated(t *testing.T) {
	if IsAuthenticated(context.Background()) {
		t.Error("empty context reported authenticated")
	}
	if IsAuthenticated(WithClaims(context.Background(), claims{id: uuid.New(), expired: true})) {
		t.Error("expired claims reported authenticated")
	}
	if !IsAuthenticated(WithClaims(context.Background(), claims{id: uuid.New()})) {
		t.Error("valid claims reported unauthenticated")
	}
}

func TestLogAttrs(t *testing.T) {
	id := uuid.New()
	ctx := WithRequestMeta(context.Background(), &RequestMeta{RequestID: "rid-1"})
	ctx = WithClaims(ctx, claims{id: id})

	attrs := LogAttrs(ctx)
	want := []any{"request_id", "rid-1", "user_id", id.String()}
	if len(attrs) != len(want) {
		t.Fatalf("LogAttrs() = %v, want %v", attrs, want)
	}
	for i := range want {
		if attrs[i] != want[i] {
			t.Errorf("attrs[%d] = %v, want %v", i, attrs[i], want[i])
		}
	}

	if got := LogAttrs(context.Background()); len(got) != 0 {
		t.Errorf("LogAttrs(empty) = %v", got)
	}
}
