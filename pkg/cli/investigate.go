package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/argus/pkg/cli/config"
	"github.com/secmon-lab/argus/pkg/domain/model"
	"github.com/secmon-lab/argus/pkg/service/llm"
	"github.com/secmon-lab/argus/pkg/usecase"
	"github.com/secmon-lab/argus/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

// cmdInvestigate runs the whole pipeline once: create a case, collect all
// generated queries, analyze, and print the resulting profiles.
func cmdInvestigate() *cli.Command {
	var task string
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var geminiCfg config.Gemini
	var searchCfg config.Search

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "task",
			Usage:       "Investigation task, e.g. \"Find Ivan Petrov, an engineer in Moscow\"",
			Required:    true,
			Destination: &task,
		},
	}
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, searchCfg.Flags()...)

	return &cli.Command{
		Name:    "investigate",
		Aliases: []string{"i"},
		Usage:   "Run a one-shot investigation and print the profiles",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := appCfg.Configure(); err != nil {
				return goerr.Wrap(err, "failed to load application configuration")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			llmClient, err := geminiCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure Gemini client")
			}
			llmSvc, err := llm.New(llmClient)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize LLM service")
			}

			searchSvc, err := searchCfg.Configure(&appCfg)
			if err != nil {
				return goerr.Wrap(err, "failed to configure search service")
			}

			uc := usecase.New(repo, llmSvc, searchSvc)

			heading := color.New(color.FgCyan, color.Bold)
			label := color.New(color.FgYellow)
			dim := color.New(color.Faint)

			investigation, err := uc.CreateCase(ctx, task)
			if err != nil {
				return goerr.Wrap(err, "failed to create case")
			}
			heading.Printf("Case %s\n", investigation.ID)
			for _, q := range investigation.GeneratedQueries {
				dim.Printf("  - %s\n", q)
			}

			outcomes, err := uc.CollectAll(ctx, investigation.ID)
			if err != nil {
				return goerr.Wrap(err, "collection failed")
			}
			for _, o := range outcomes {
				if o.Error != "" {
					color.Red("  ✗ %s: %s", o.Query, o.Error)
					continue
				}
				fmt.Printf("  ✓ %s: %d results (%s)\n", o.Query, o.Added, o.Source)
			}

			profiles, err := uc.Analyze(ctx, investigation.ID)
			if err != nil {
				return goerr.Wrap(err, "analysis failed")
			}

			for i, p := range profiles {
				heading.Printf("\nProfile %d: %s\n", i+1, p.MainData.FullName)
				fmt.Println(p.Description)

				printField(label, "Date of birth", p.MainData.DateOfBirth)
				printField(label, "Citizenship", p.MainData.Citizenship)
				printList(label, "Nicknames", p.MainData.PossibleNicknames)
				printList(label, "Email", p.Contacts.Email)
				printList(label, "Phone", p.Contacts.Phone)
				printList(label, "Workplaces", p.ProfessionalActivity.WorkplacePosition)

				label.Print("Conclusion: ")
				fmt.Println(p.Conclusion)
				label.Print("Accuracy: ")
				fmt.Println(p.AccuracyAssessment)

				if len(p.Sources) > 0 {
					label.Println("Sources:")
					for _, src := range p.Sources {
						dim.Printf("  %s\n", src)
					}
				}
			}

			return nil
		},
	}
}

func printField(label *color.Color, name, value string) {
	if value == "" || value == model.NotAvailable {
		return
	}
	label.Printf("%s: ", name)
	fmt.Println(value)
}

func printList(label *color.Color, name string, values []string) {
	if len(values) == 0 {
		return
	}
	label.Printf("%s: ", name)
	fmt.Println(strings.Join(values, ", "))
}
