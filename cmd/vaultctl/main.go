package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/xela07ax/vaultgate-prototype/internal/domain"
	"github.com/xela07ax/vaultgate-prototype/internal/guardians"
	"github.com/xela07ax/vaultgate-prototype/internal/infra"
	"github.com/xela07ax/vaultgate-prototype/internal/vault"
)

// Дневной лимит CLI-режима: 1 ETH в wei (toy)
const defaultDailyLimit = int64(1e18)

func main() {
	actor := pflag.String("actor", "", "actor requesting the signature (required)")
	to := pflag.String("to", "", "recipient hex address, 0x + 40 chars (required)")
	value := pflag.Int64("value", 0, "transfer value in atomic units (required)")
	data := pflag.String("data", "0x", "opaque intent payload")
	chain := pflag.Int64("chain", 1, "chain id")
	nonce := pflag.Int64("nonce", 0, "intent nonce")
	pflag.Parse()

	if *actor == "" || *to == "" || !pflag.CommandLine.Changed("value") {
		fmt.Fprintln(os.Stderr, "usage: vaultctl --actor <name> --to <0x...> --value <n> [--data 0x] [--chain 1] [--nonce 0]")
		pflag.PrintDefaults()
		os.Exit(2)
	}

	// stdout зарезервирован под JSON-результат, лог уходит в stderr
	// и молчит ниже error
	logger, err := infra.NewLogger(infra.LoggerConfig{Level: "error", Format: "console"})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Самоавторизация CLI-режима: актор вызова — единственный опекун.
	// Ядро об этом не знает, оно видит обычный Directory.
	v := vault.New(
		vault.Config{
			Secret:   infra.LoadSecret(""), // VAULT_SECRET либо демо-ключ
			Limits:   map[string]int64{"daily": defaultDailyLimit},
			Cooldown: 5 * time.Second,
		},
		guardians.NewStatic(*actor),
		vault.NewMemoryCooldown(),
		nil, // реальные часы
		logger,
	)

	intent := domain.Intent{
		To:      *to,
		Value:   *value,
		Data:    *data,
		ChainID: *chain,
		Nonce:   *nonce,
	}

	signed, err := v.Sign(context.Background(), intent, *actor)
	if err != nil {
		if rej, ok := domain.AsRejection(err); ok {
			// Отказ политики — штатный исход: JSON в stdout, код выхода 0
			printJSON(map[string]string{"error": rej.Message})
			return
		}
		logger.Error("sign failed", zap.Error(err))
		os.Exit(1)
	}

	printJSON(signed)
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
