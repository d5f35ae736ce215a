package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/docscopilot/docscopilot/internal/diffscan"
	"github.com/docscopilot/docscopilot/internal/docrepo"
	"github.com/docscopilot/docscopilot/internal/git"
	"github.com/docscopilot/docscopilot/internal/mcp"
	"github.com/docscopilot/docscopilot/internal/mcp/tools"
	"github.com/docscopilot/docscopilot/internal/metadata"
	"github.com/docscopilot/docscopilot/internal/retry"
	"github.com/docscopilot/docscopilot/internal/spans"
	"github.com/docscopilot/docscopilot/internal/templates"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a tool server over stdio",
}

var serveCodeContextCmd = &cobra.Command{
	Use:   "code-context",
	Short: "Serve feature metadata, code example, and endpoint diff tools",
	RunE: func(cmd *cobra.Command, args []string) error {
		runner := newRunner()
		resolver := metadata.NewResolver(runner, logger)
		extractor := spans.NewExtractor(cfg.Docs.SupportedLanguages)
		scanner := diffscan.NewScanner("")

		handler := mcp.NewHandler("docscopilot-code-context", Version, logger)
		handler.RegisterTool("get_feature_metadata",
			tools.NewGetFeatureMetadataTool(resolver, cfg.Workspace.Root))
		handler.RegisterTool("get_code_examples",
			tools.NewGetCodeExamplesTool(extractor, cfg.Workspace.Root))
		handler.RegisterTool("get_changed_endpoints",
			tools.NewGetChangedEndpointsTool(runner, scanner, cfg.Workspace.Root))

		return serve(handler)
	},
}

var serveDocsRepoCmd = &cobra.Command{
	Use:   "docs-repo",
	Short: "Serve documentation repository management tools",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := newManager()
		if err != nil {
			return err
		}

		handler := mcp.NewHandler("docscopilot-docs-repo", Version, logger)
		handler.RegisterTool("suggest_doc_location",
			tools.NewSuggestDocLocationTool(manager))
		handler.RegisterTool("write_doc",
			tools.NewWriteDocTool(manager))
		handler.RegisterTool("open_pr",
			tools.NewOpenPRTool(manager, cfg.Workspace.Root))

		return serve(handler)
	},
}

var serveTemplatesStyleCmd = &cobra.Command{
	Use:   "templates-style",
	Short: "Serve template, style guide, and glossary tools",
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver := templates.NewResolver(cfg.Templates.Path, cfg.Workspace.Root, logger)

		handler := mcp.NewHandler("docscopilot-templates-style", Version, logger)
		handler.RegisterTool("get_template",
			tools.NewGetTemplateTool(resolver))
		handler.RegisterTool("get_style_guide",
			tools.NewGetStyleGuideTool(resolver))
		handler.RegisterTool("get_glossary",
			tools.NewGetGlossaryTool(resolver))

		return serve(handler)
	},
}

func newRunner() *git.Runner {
	return git.NewRunner(cfg.Workspace.Root, cfg.Git.Binary, cfg.Git.Timeout, logger)
}

func newManager() (*docrepo.Manager, error) {
	policy := retry.Policy{
		MaxRetries:   cfg.API.MaxRetries,
		InitialDelay: cfg.API.InitialBackoff,
		MaxDelay:     cfg.API.MaxBackoff,
		Factor:       2.0,
	}
	if policy.InitialDelay <= 0 {
		policy.InitialDelay = time.Second
	}

	githubClient, err := docrepo.NewGitHubClient(
		cfg.GitHub.Token, cfg.GitHub.APIURL, cfg.GitHub.Host, cfg.GitHub.RateLimit, policy, logger)
	if err != nil {
		return nil, err
	}
	gitlabClient, err := docrepo.NewGitLabClient(
		cfg.GitLab.Token, cfg.GitLab.APIURL, cfg.GitLab.Host, policy, logger)
	if err != nil {
		return nil, err
	}

	return docrepo.NewManager(
		newRunner(),
		[]docrepo.ForgeClient{githubClient, gitlabClient},
		cfg.Docs.Dir,
		cfg.Docs.DefaultDocType,
		cfg.Docs.DefaultBaseBranch,
		logger,
	), nil
}

func serve(handler *mcp.Handler) error {
	transport := mcp.NewStdioTransport(handler, os.Stdin, os.Stdout, logger)
	return transport.Start(context.Background())
}

func init() {
	serveCmd.AddCommand(serveCodeContextCmd)
	serveCmd.AddCommand(serveDocsRepoCmd)
	serveCmd.AddCommand(serveTemplatesStyleCmd)
}
