package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bimmerbailey/bodhi/internal/output"
	"github.com/bimmerbailey/bodhi/internal/prompt"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Print the prompt templates in effect",
	Long: `Print the system persona, analysis template and response template for
the selected domain, after applying any templates configured in
~/.bodhi.yaml. For the medical domain without a custom response template,
every routed response variant is listed.

Examples:
  bodhi templates
  bodhi templates --domain general --format json`,
	Args: cobra.NoArgs,
	RunE: runTemplates,
}

func init() {
	rootCmd.AddCommand(templatesCmd)
}

// medicalRoutes lists the response variants in display order.
var medicalRoutes = []prompt.Route{
	{Task: prompt.TaskEmergency},
	{Task: prompt.TaskTechnical},
	{Task: prompt.TaskHybrid},
	{Task: prompt.TaskConversation, Audience: prompt.AudiencePatient},
	{Task: prompt.TaskConversation, Audience: prompt.AudienceProfessional},
	{Task: prompt.TaskConversation, Audience: prompt.AudienceUnclear},
}

func runTemplates(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	coreCfg, err := coreConfig(cfg)
	if err != nil {
		return err
	}

	d := coreCfg.Domain()
	set := output.TemplateSet{
		Domain:   d,
		System:   prompt.SystemPrompt(d),
		Analysis: coreCfg.AnalysisTemplate(),
		Response: coreCfg.ResponseTemplate(),
	}

	if d == prompt.DomainMedical && !coreCfg.CustomResponse() {
		for _, r := range medicalRoutes {
			set.Routes = append(set.Routes, output.RoutedTemplate{
				Route:    r,
				Template: prompt.MedicalResponseTemplate(r),
			})
		}
	}

	return newWriter(cmd, cfg.Format).WriteTemplates(set)
}
