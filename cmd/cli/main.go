// Command cli calibrates one subject from a JSON file and prints the sealed
// certificate, for audit spot checks without a running server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"calengine/adapters/api"
	"calengine/app"
	"calengine/domain/calibration"
	"calengine/domain/certificate"
	"calengine/domain/core"
	"calengine/domain/graph"
	"calengine/internal"
	"calengine/internal/config"
	"calengine/internal/registry"
)

func main() {
	subjectPath := flag.String("subject", "", "path to a subject JSON file (same shape as the API calibrate request)")
	flag.Parse()
	if *subjectPath == "" {
		fmt.Fprintln(os.Stderr, "usage: cli -subject subject.json")
		os.Exit(2)
	}

	_ = godotenv.Load()
	logger := internal.NewDefaultLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration rejected: %v", err)
	}
	set, err := config.LoadConfigurationSet(cfg.Engine.ConfigSetPath)
	if err != nil {
		log.Fatalf("configuration set rejected: %v", err)
	}
	snap, err := registry.NewSnapshot(set)
	if err != nil {
		log.Fatalf("configuration set rejected: %v", err)
	}

	service, err := app.NewCalibrationService(snap, certificate.NewBuilder(), []byte(cfg.Engine.SealingSecret), logger)
	if err != nil {
		log.Fatalf("service init failed: %v", err)
	}

	data, err := os.ReadFile(*subjectPath)
	if err != nil {
		log.Fatalf("cannot read subject file: %v", err)
	}
	var req api.CalibrateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		log.Fatalf("malformed subject file: %v", err)
	}
	g := req.Graph
	if err := g.Validate(); err != nil {
		log.Fatalf("invalid graph: %v", err)
	}

	subject := calibration.Subject{
		Instance: core.InstanceID(req.InstanceID),
		Method:   core.MethodID(req.Method),
		Role:     calibration.Role(req.Role),
		Node:     graph.NodeID(req.Node),
		Graph:    &g,
		Context:  req.Context,
		Evidence: req.Evidence,
	}

	cert, err := service.Calibrate(context.Background(), subject)
	if err != nil {
		log.Fatalf("calibration failed: %v", err)
	}

	out, err := json.MarshalIndent(cert, "", "  ")
	if err != nil {
		log.Fatalf("cannot render certificate: %v", err)
	}
	fmt.Println(string(out))
}
