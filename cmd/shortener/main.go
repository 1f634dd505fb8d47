package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/samber/do"
	"github.com/serroba/lleria/internal/container"
	"github.com/serroba/lleria/internal/frontend"
	"github.com/serroba/lleria/internal/shortener"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const commandTimeout = 30 * time.Second

func registerPackages(injector *do.Injector, options *container.Options) {
	do.ProvideValue(injector, options)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.StorePackage(injector)
	container.MessagingPackage(injector)
	container.EnginePackage(injector)
}

func main() {
	container.LoadEnv()

	var (
		injector *do.Injector
		options  *container.Options
	)

	cli := humacli.New(func(hooks humacli.Hooks, opts *container.Options) {
		options = opts
		injector = do.New()
		registerPackages(injector, opts)

		hooks.OnStart(func() {
			defer shutdown(injector)

			if err := runConsole(injector, opts); err != nil {
				do.MustInvoke[*zap.Logger](injector).Error("console stopped", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			shutdown(injector)
		})
	})

	cli.Root().Use = "shortener"
	cli.Root().Short = "Shorten URLs interactively"

	cli.Root().AddCommand(&cobra.Command{
		Use:   "interactive",
		Short: "Read URLs from stdin, one per line, and shorten each",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			defer shutdown(injector)

			return runConsole(injector, options)
		},
	})

	cli.Root().AddCommand(&cobra.Command{
		Use:   "shorten <url>",
		Short: "Shorten a URL and print its short link",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			defer shutdown(injector)

			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			result := do.MustInvoke[*shortener.Engine](injector).Shorten(ctx, args[0])
			if !result.Success() {
				return result.Err
			}

			if result.AlreadyExists {
				fmt.Printf("%s (already shortened)\n", result.ShortURL.Link(options.PublicBaseURL()))
			} else {
				fmt.Println(result.ShortURL.Link(options.PublicBaseURL()))
			}

			return nil
		},
	})

	cli.Root().AddCommand(&cobra.Command{
		Use:   "resolve <code>",
		Short: "Print the original URL of a short code",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			defer shutdown(injector)

			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			originalURL, found, err := do.MustInvoke[*shortener.Engine](injector).Resolve(ctx, shortener.Code(args[0]))
			if err != nil {
				return err
			}

			if !found {
				return fmt.Errorf("short code %q not found", args[0])
			}

			fmt.Println(originalURL)

			return nil
		},
	})

	cli.Root().AddCommand(&cobra.Command{
		Use:   "history",
		Short: "List every short URL, newest first",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			defer shutdown(injector)

			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			records, err := do.MustInvoke[*shortener.Engine](injector).ListHistory(ctx)
			if err != nil {
				return err
			}

			history := frontend.NewHistory(options.PublicBaseURL())
			history.Load(records)

			for _, entry := range history.Entries() {
				fmt.Println(entry)
			}

			return nil
		},
	})

	cli.Run()
}

func runConsole(injector *do.Injector, opts *container.Options) error {
	engine := do.MustInvoke[*shortener.Engine](injector)
	logger := do.MustInvoke[*zap.Logger](injector)

	return frontend.NewConsole(engine, opts.PublicBaseURL(), logger).Run(context.Background(), os.Stdin, os.Stdout)
}

func shutdown(injector *do.Injector) {
	if injector == nil {
		return
	}

	_ = injector.Shutdown()
}
