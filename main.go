package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/arcadialabs-io/actionbridge/core/dispatch"
	"github.com/arcadialabs-io/actionbridge/core/enrich"
	"github.com/arcadialabs-io/actionbridge/core/ingress"
	"github.com/arcadialabs-io/actionbridge/core/integrations"
	"github.com/arcadialabs-io/actionbridge/core/ledger"
	"github.com/arcadialabs-io/actionbridge/db"
	"github.com/arcadialabs-io/actionbridge/pkg/broker"
	"github.com/arcadialabs-io/actionbridge/pkg/llm"
	"github.com/arcadialabs-io/actionbridge/webapi"
)

var (
	llmModel      = os.Getenv("ACTIONBRIDGE_LLM_MODEL")
	llmAPIURL     = os.Getenv("ACTIONBRIDGE_LLM_API_URL")
	llmAPIKey     = os.Getenv("ACTIONBRIDGE_LLM_API_KEY")
	llmTimeout    = os.Getenv("ACTIONBRIDGE_LLM_TIMEOUT")
	brokerURL     = os.Getenv("ACTIONBRIDGE_BROKER_URL")
	brokerAPIKey  = os.Getenv("ACTIONBRIDGE_BROKER_API_KEY")
	brokerTimeout = os.Getenv("ACTIONBRIDGE_BROKER_TIMEOUT")
	listenAddr    = os.Getenv("ACTIONBRIDGE_LISTEN_ADDR")
)

func init() {
	_ = godotenv.Load()

	if brokerURL == "" {
		panic("ACTIONBRIDGE_BROKER_URL not set")
	}
	if llmTimeout == "" {
		llmTimeout = "2m"
	}
	if brokerTimeout == "" {
		brokerTimeout = "30s"
	}
	if listenAddr == "" {
		listenAddr = ":3000"
	}
}

func main() {
	db.ConnectDB()

	store := ledger.NewStore(db.DB)
	registry := integrations.NewRegistry(db.DB)

	// Without an LLM endpoint the engine runs in pass-through mode: every
	// candidate proceeds as actionable with fallback confidence.
	var engine *enrich.Engine
	if llmAPIURL != "" {
		engine = enrich.NewEngine(llm.NewClient(llmAPIKey, llmAPIURL, llmTimeout), llmModel)
	} else {
		engine = enrich.NewEngine(nil, "")
	}

	brokerClient := broker.NewClient(brokerURL, brokerAPIKey, brokerTimeout)

	gate := ingress.NewGate(store, registry, engine)
	dispatcher := dispatch.NewDispatcher(store, registry, brokerClient, db.DB)

	app := webapi.NewApp(
		webapi.WithGate(gate),
		webapi.WithDispatcher(dispatcher),
		webapi.WithLedger(store),
	)

	log.Fatal(app.Listen(listenAddr))
}
