// Command llmtest runs each inference call shape once against the
// configured provider and prints the answers. Handy after rotating keys or
// switching models.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/garanley/claims-intake/cmd/mainconfig"
	"github.com/garanley/claims-intake/internal/app/bootstrap"
	appconfig "github.com/garanley/claims-intake/internal/config"
	"github.com/garanley/claims-intake/internal/conversation"
	"github.com/garanley/claims-intake/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel).WithComponent("llmtest")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, models, err := bootstrap.BuildLLMClient(ctx, cfg, mainconfig.Loader(cfg), logger)
	if err != nil {
		logger.Error("build inference client", "error", err)
		os.Exit(1)
	}
	svc := conversation.NewService(client, models, logger)

	yes := true
	run("analyze_case", func() (string, error) {
		return svc.AnalyzeCase(ctx, "Un coche me golpeó por detrás en un semáforo en rojo. Tengo dolor cervical y fui a urgencias."), nil
	})
	run("estimate_compensation", func() (string, error) {
		return svc.EstimateCompensation(ctx, conversation.CompensationInput{
			AccidentType:       "Tráfico",
			HasMaterialDamages: &yes,
			HasInjuries:        &yes,
			DaysHospital:       3,
			DaysRehab:          45,
			HasLegalDefense:    &yes,
			LegalDefenseStatus: "No estoy conforme con mi defensa actual",
		}), nil
	})
	run("chat", func() (string, error) {
		reply, err := svc.Chat(ctx, "Tuve un accidente de moto, ¿me podéis ayudar?", nil)
		if reply.ShowSchedule {
			reply.Text += "\n  (schedule link offered)"
		}
		return reply.Text, err
	})
	run("ask_faq", func() (string, error) {
		return svc.AskFAQ(ctx, "¿Cuánto cobráis?"), nil
	})
	run("ask_process", func() (string, error) {
		return svc.AskProcess(ctx, "¿Cuánto tarda la negociación?"), nil
	})
}

func run(name string, fn func() (string, error)) {
	start := time.Now()
	text, err := fn()
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		fmt.Printf("[%s] failed after %v: %v\n\n", name, elapsed, err)
		return
	}
	fmt.Printf("[%s] %v\n%s\n\n", name, elapsed, text)
}
