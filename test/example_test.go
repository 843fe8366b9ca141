package test

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/guard"
	"github.com/MrEthical07/goSession/httpapi"
	"github.com/MrEthical07/goSession/policy"
	"github.com/MrEthical07/goSession/storage"
)

// ExampleNew demonstrates manager construction with production-style dependencies.
func ExampleNew() {
	api, _ := httpapi.New(httpapi.Config{BaseURL: "https://api.learn.example.com"}, zerolog.Nop())
	medium, _ := storage.NewFile("/tmp/session.json")

	sessions, _ := goSession.New().
		WithAPI(api).
		WithStorage(medium).
		Build()
	_ = sessions
}

// ExampleManager_Restore shows the application-start sequence: restore the
// persisted session, then gate the first route on the outcome.
func ExampleManager_Restore() {
	var sessions *goSession.Manager

	state := sessions.Restore(context.Background())
	fmt.Println(state)
}

// ExampleGuard_Evaluate shows a route gate for instructor-only content.
func ExampleGuard_Evaluate() {
	var sessions *goSession.Manager
	gate := guard.New(sessions)

	decision := gate.Evaluate(context.Background(), guard.Requirement{
		Roles: []policy.Role{policy.RoleInstructor},
	}, "/instructor/courses")

	if decision.Action == guard.ActionRedirect {
		fmt.Println(decision.Target)
	}
}

// ExampleManager_Metrics shows how to read in-process metrics counters.
func ExampleManager_Metrics() {
	var sessions *goSession.Manager
	snapshot := sessions.Metrics().Snapshot()
	_ = snapshot
}
