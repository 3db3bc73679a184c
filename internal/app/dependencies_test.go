package app

import (
	"context"
	"testing"

	"github.com/yuridenisov/oims/internal/config"
)

func TestNewDependencies_InMemory(t *testing.T) {
	deps, err := NewDependencies(context.Background(), config.Default(), nil)
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	defer deps.Close()

	if deps.Users == nil || deps.Products == nil || deps.Orders == nil {
		t.Fatal("all repositories must be initialized")
	}
	if deps.Store != nil {
		t.Fatal("no postgres store expected without dsn")
	}
	if err := deps.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}
