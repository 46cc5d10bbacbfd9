package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/maccel-fedora/rpm-builder/internal/freshness"
	"github.com/maccel-fedora/rpm-builder/internal/ghapi"
	"github.com/maccel-fedora/rpm-builder/internal/platform"
	"github.com/maccel-fedora/rpm-builder/internal/registry"
	"github.com/maccel-fedora/rpm-builder/internal/release"
	"github.com/maccel-fedora/rpm-builder/internal/trigger"
	"github.com/maccel-fedora/rpm-builder/internal/upstream"
)

// Exit codes other tooling in the pipeline depends on.
const (
	exitSkippable     = 0
	exitBuildRequired = 1
	exitInputError    = 2
)

var (
	configFile    string
	fedoraVersion int
	verbose       bool
)

// buildRequired is returned by subcommands to request exit code 1 without
// printing an error.
var buildRequired = errors.New("build required")

type runtime struct {
	config   *checkConfig
	resolver *freshness.Resolver
	registry registry.Registry
}

func newRuntime() (*runtime, error) {
	config, err := parseConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("cannot load config file %q: %w", configFile, err)
	}

	var env envConfig
	if err := loadConfigFromEnv(&env); err != nil {
		return nil, err
	}
	if env.GitHubAPIURL != "" {
		config.API.BaseURL = env.GitHubAPIURL
	}
	if env.GitHubToken == "" {
		logrus.Warn("GITHUB_TOKEN is not set, using anonymous API access")
	}

	client := ghapi.NewClient(ghapi.ClientConfig{
		BaseURL:      config.API.BaseURL,
		Token:        env.GitHubToken,
		Timeout:      config.API.timeout(),
		RetryMax:     config.API.RetryMax,
		RetryWaitMin: config.API.retryWaitMin(),
		RetryWaitMax: config.API.retryWaitMax(),
	})

	reg := registry.NewGitHubRegistry(client, config.Registry.Owner, config.Registry.Repo)
	oracle := upstream.NewGitHubOracle(client,
		config.Upstream.Owner, config.Upstream.Repo,
		config.Upstream.Branch, config.Upstream.ManifestPath)

	return &runtime{
		config:   config,
		resolver: &freshness.Resolver{Registry: reg, Oracle: oracle},
		registry: reg,
	}, nil
}

func targetFromArgs(args []string) platform.Target {
	return platform.Target{
		KernelVersion: args[0],
		FedoraVersion: fedoraVersion,
	}
}

func versionFromArgs(args []string) string {
	if len(args) < 2 || args[1] == "latest" {
		return ""
	}
	return args[1]
}

var checkCmd = &cobra.Command{
	Use:          "check <kernelVersion> [sourceVersion] [forceRebuild]",
	Short:        "Decide whether a build is required for a kernel version",
	Args:         cobra.RangeArgs(1, 3),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		force := false
		if len(args) == 3 {
			parsed, err := strconv.ParseBool(args[2])
			if err != nil {
				return fmt.Errorf("forceRebuild must be a boolean, got %q", args[2])
			}
			force = parsed
		}

		rt, err := newRuntime()
		if err != nil {
			return err
		}

		result, err := rt.resolver.Resolve(cmd.Context(), targetFromArgs(args), versionFromArgs(args), force)
		if err != nil {
			return err
		}
		if result.Decision == freshness.BuildRequired {
			logrus.Infof("Build required for %s (%s)", result.Tag, result.Reason)
			return buildRequired
		}

		fmt.Println(result.Tag)
		for _, asset := range result.Existing.Assets {
			fmt.Println(asset.URL)
		}
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:          "info <kernelVersion> [sourceVersion]",
	Short:        "Print the JSON artifact descriptor for a kernel version",
	Args:         cobra.RangeArgs(1, 2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}

		target := targetFromArgs(args)
		if err := target.Validate(); err != nil {
			return err
		}
		kernel, err := target.Kernel()
		if err != nil {
			return err
		}

		version := versionFromArgs(args)
		if version == "" {
			version, err = upstream.ResolveVersion(cmd.Context(), rt.resolver.Oracle)
			if err != nil {
				return err
			}
		}

		tag := release.Tag(target.KernelVersion, version)
		descriptor := struct {
			ReleaseTag    string           `json:"release_tag"`
			KernelVersion string           `json:"kernel_version"`
			MaccelVersion string           `json:"maccel_version"`
			Exists        bool             `json:"exists"`
			ExpectedFiles []string         `json:"expected_files"`
			DownloadURLs  []string         `json:"download_urls"`
			Assets        []registry.Asset `json:"assets,omitempty"`
		}{
			ReleaseTag:    tag,
			KernelVersion: target.KernelVersion,
			MaccelVersion: version,
			ExpectedFiles: release.AssetFilenames(kernel, version),
		}
		for _, filename := range descriptor.ExpectedFiles {
			descriptor.DownloadURLs = append(descriptor.DownloadURLs,
				release.DownloadURL(rt.config.Registry.Host, rt.config.Registry.Owner, rt.config.Registry.Repo, tag, filename))
		}

		exists, err := rt.registry.Exists(cmd.Context(), tag)
		if err != nil {
			logrus.Warnf("Release registry lookup failed: %v", err)
		} else if exists {
			descriptor.Exists = true
			set, err := rt.registry.Assets(cmd.Context(), tag)
			if err != nil {
				logrus.Warnf("Cannot list release assets: %v", err)
			} else {
				descriptor.Assets = set.Assets
			}
		}

		return printJSON(descriptor)
	},
}

var listCmd = &cobra.Command{
	Use:          "list <kernelVersionPattern>",
	Short:        "List published release tags for a kernel version prefix",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}

		tags, err := rt.registry.List(cmd.Context(), "kernel-"+args[0])
		if err != nil {
			return err
		}
		for _, tag := range tags {
			fmt.Println(tag)
		}
		return nil
	},
}

var releaseTagCmd = &cobra.Command{
	Use:          "release-tag <kernelVersion> [sourceVersion]",
	Short:        "Print the release tag for a kernel and source version",
	Args:         cobra.RangeArgs(1, 2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		target := targetFromArgs(args)
		if err := target.Validate(); err != nil {
			return err
		}

		version := versionFromArgs(args)
		if version == "" {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			version, err = upstream.ResolveVersion(cmd.Context(), rt.resolver.Oracle)
			if err != nil {
				return err
			}
		}

		fmt.Println(release.Tag(target.KernelVersion, version))
		return nil
	},
}

var payloadCmd = &cobra.Command{
	Use:          "payload <file|->",
	Short:        "Run a full freshness resolution from a repository-dispatch payload",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		if args[0] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return err
		}

		request, err := trigger.ParsePayload(data)
		if err != nil {
			return err
		}
		log := logrus.WithField("request_id", request.ID)
		if request.TriggerRepo != "" {
			log = log.WithField("trigger_repo", request.TriggerRepo)
		}
		log.Infof("Resolving freshness for kernel %s", request.Target.KernelVersion)

		rt, err := newRuntime()
		if err != nil {
			return err
		}

		result, err := rt.resolver.Resolve(cmd.Context(), request.Target, request.MaccelVersion, request.ForceRebuild)
		if err != nil {
			return err
		}

		outcome := struct {
			RequestID string `json:"request_id"`
			freshness.Result
		}{request.ID.String(), result}
		if err := printJSON(outcome); err != nil {
			return err
		}
		if result.Decision == freshness.BuildRequired {
			return buildRequired
		}
		return nil
	},
}

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "maccel-build-check",
		Short:         "Decides whether published maccel RPMs already satisfy a build request",
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
			logrus.SetOutput(os.Stderr)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", defaultConfigFile, "path to the TOML config file")
	rootCmd.PersistentFlags().IntVar(&fedoraVersion, "fedora-version", trigger.DefaultFedoraVersion, "Fedora version the request targets")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(checkCmd, infoCmd, listCmd, releaseTagCmd, payloadCmd)

	err := rootCmd.Execute()
	switch {
	case err == nil:
		os.Exit(exitSkippable)
	case errors.Is(err, buildRequired):
		os.Exit(exitBuildRequired)
	default:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitInputError)
	}
}
