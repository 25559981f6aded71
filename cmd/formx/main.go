package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/formx360/formx/internal/backend"
	"github.com/formx360/formx/internal/config"
	"github.com/formx360/formx/internal/logging"
	"github.com/formx360/formx/internal/middleware"
	"github.com/formx360/formx/internal/storage"
	"github.com/formx360/formx/pkg/sdk"
	"github.com/formx360/formx/pkg/validation"
)

const defaultTokenTTL = 24 * time.Hour

func main() {
	if len(os.Args) < 2 {
		printUsage()
		return
	}

	log, err := logging.NewWithOutput(os.Stderr, "info", "text")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	command := strings.ToLower(os.Args[1])
	args := os.Args[2:]

	switch command {
	case "validate":
		if len(args) < 2 {
			log.Fatal("Usage: formx validate <form.yaml|json> <responses.yaml|json>")
		}
		result, err := validateFiles(args[0], args[1])
		if err != nil {
			log.Fatal(err)
		}
		printJSON(map[string]any{
			"ok":         result.OK(),
			"errors":     result.Messages(),
			"violations": result.Violations(),
		})
		if !result.OK() {
			os.Exit(2)
		}

	case "token":
		if len(args) < 1 {
			log.Fatal("Usage: formx token <user-id> [ttl]")
		}
		ttl := defaultTokenTTL
		if len(args) > 1 {
			if ttl, err = time.ParseDuration(args[1]); err != nil {
				log.Fatalf("Invalid ttl %q: %v", args[1], err)
			}
		}
		cfg := loadConfig(log)
		if cfg.JWTSecret == "" {
			log.Fatal("FORMX_JWT_SECRET is required")
		}
		token, err := middleware.NewAuthenticator(cfg.JWTSecret).IssueToken(args[0], "", ttl)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(token)

	case "migrate":
		cfg := loadConfig(log)
		dsn := cfg.PostgresDSN
		if len(args) > 0 {
			dsn = args[0]
		}
		if dsn == "" {
			log.Fatal("Usage: formx migrate [dsn] (or set FORMX_POSTGRES_DSN)")
		}
		b, err := backend.Open(context.Background(), backend.Options{Kind: config.StorePostgres, DSN: dsn}, log)
		if err != nil {
			log.Fatal(err)
		}
		if err := b.Close(); err != nil {
			log.Fatal(err)
		}
		fmt.Println("OK")

	case "copy-store":
		if len(args) < 2 {
			log.Fatal("Usage: formx copy-store <file:dir|postgres:dsn> <file:dir|postgres:dsn>")
		}
		cfg := loadConfig(log)
		key, err := cfg.VaultKey()
		if err != nil {
			log.Fatal(err)
		}
		stats, err := copyStore(context.Background(), args[0], args[1], key, log)
		if err != nil {
			log.Fatal(err)
		}
		printJSON(stats)

	case "get-form":
		if len(args) < 1 {
			log.Fatal("Usage: formx get-form <form-id>")
		}
		client := connect(log)
		form, err := client.GetForm(context.Background(), args[0])
		if err != nil {
			log.Fatal(err)
		}
		printJSON(form)

	case "submit":
		if len(args) < 2 {
			log.Fatal("Usage: formx submit <form-id> <responses.yaml|json> [user-id]")
		}
		answers, err := loadResponses(args[1])
		if err != nil {
			log.Fatal(err)
		}
		userID := ""
		if len(args) > 2 {
			userID = args[2]
		}
		client := connect(log)
		response, err := client.Submit(context.Background(), args[0], userID, answers)
		if violations := sdk.Violations(err); len(violations) > 0 {
			printJSON(map[string]any{"ok": false, "errors": violations})
			os.Exit(2)
		}
		if err != nil {
			log.Fatal(err)
		}
		printJSON(response)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
	}
}

func connect(log logrus.FieldLogger) *sdk.Client {
	client, err := sdk.New()
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	return client
}

func loadConfig(log logrus.FieldLogger) config.Config {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

// parseLocation splits "file:./data" or "postgres:postgres://..." into backend options.
func parseLocation(loc string, key []byte) (backend.Options, error) {
	kind, target, ok := strings.Cut(loc, ":")
	if !ok || target == "" {
		return backend.Options{}, fmt.Errorf("invalid store location %q", loc)
	}
	switch kind {
	case config.StoreFile:
		return backend.Options{Kind: kind, DataDir: target, Key: key}, nil
	case config.StorePostgres:
		return backend.Options{Kind: kind, DSN: target}, nil
	}
	return backend.Options{}, fmt.Errorf("unknown store kind %q in %q", kind, loc)
}

func copyStore(ctx context.Context, from, to string, key []byte, log logrus.FieldLogger) (storage.CopyStats, error) {
	srcOpts, err := parseLocation(from, key)
	if err != nil {
		return storage.CopyStats{}, err
	}
	dstOpts, err := parseLocation(to, key)
	if err != nil {
		return storage.CopyStats{}, err
	}

	src, err := backend.Open(ctx, srcOpts, log)
	if err != nil {
		return storage.CopyStats{}, err
	}
	defer src.Close()

	dst, err := backend.Open(ctx, dstOpts, log)
	if err != nil {
		return storage.CopyStats{}, err
	}

	stats, err := storage.Copy(ctx, src.Store, dst.Store)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	return stats, err
}

func printUsage() {
	fmt.Println("FormX CLI - operator tools for the FormX backend")
	fmt.Println("\nUsage:")
	fmt.Println("  formx validate <form> <responses>   Validate a response set against a form (YAML or JSON)")
	fmt.Println("  formx token <user-id> [ttl]         Issue a bearer token (default ttl 24h)")
	fmt.Println("  formx migrate [dsn]                 Apply the PostgreSQL schema")
	fmt.Println("  formx copy-store <from> <to>        Copy all data between stores, e.g. file:./data postgres:<dsn>")
	fmt.Println("  formx get-form <form-id>            Fetch a form from a running server")
	fmt.Println("  formx submit <form-id> <responses>  Submit a response set to a running server")
	fmt.Println("\nEnvironment Variables:")
	fmt.Println("  FORMX_JWT_SECRET     Secret used to sign tokens")
	fmt.Println("  FORMX_POSTGRES_DSN   Default DSN for migrate")
	fmt.Println("  FORMX_DATA_KEY       Hex AES-256 key for encrypted file stores")
	fmt.Println("  FORMX_ADDR           Server address for get-form and submit (default: http://localhost:5000)")
	fmt.Println("  FORMX_TOKEN          Bearer token sent to the server")
}

func printJSON(v any) {
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(v)
		return
	}
	fmt.Println(string(bytes))
}

// validateFiles runs the validation engine over two fixture files.
func validateFiles(formPath, responsesPath string) (validation.Result, error) {
	form, err := loadForm(formPath)
	if err != nil {
		return validation.Result{}, err
	}
	answers, err := loadResponses(responsesPath)
	if err != nil {
		return validation.Result{}, err
	}
	return validation.Validate(form, answers), nil
}
