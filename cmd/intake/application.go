package main

import (
	"github.com/spf13/cobra"

	"github.com/hireflow/intake-engine/internal/usecase"
)

var (
	applicationArg string
	saveFieldReq   usecase.SaveExtractedFieldRequest
	updateFieldReq usecase.UpdateExtractedFieldRequest
	reopenReq      usecase.ReopenTodoRequest
	consentText    string
	statusArg      string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Save or correct extracted answers",
}

var extractSaveCmd = &cobra.Command{
	Use:     "save",
	Short:   "Complete a validating or manual_input todo with a value",
	PreRunE: setup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		res, err := svc.SaveExtractedField(cmd.Context(), saveFieldReq)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var extractUpdateCmd = &cobra.Command{
	Use:     "update",
	Short:   "Correct the value of an extracted field",
	PreRunE: setup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		res, err := svc.UpdateExtractedField(cmd.Context(), updateFieldReq)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var reopenCmd = &cobra.Command{
	Use:     "reopen",
	Short:   "Reopen a done todo for correction",
	PreRunE: setup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		todo, err := svc.ReopenTodo(cmd.Context(), reopenReq)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), todo)
	},
}

var reviewCmd = &cobra.Command{
	Use:     "review",
	Short:   "Mark the extracted answers as reviewed",
	PreRunE: setup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := svc.MarkExtractionReviewed(cmd.Context(), usecase.ApplicationRequest{ApplicationID: applicationArg})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), app)
	},
}

var consentCmd = &cobra.Command{
	Use:     "consent",
	Short:   "Record applicant consent",
	PreRunE: setup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := svc.CheckConsent(cmd.Context(), usecase.CheckConsentRequest{
			ApplicationID: applicationArg,
			ConsentText:   consentText,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), app)
	},
}

var submitCmd = &cobra.Command{
	Use:     "submit",
	Short:   "Submit an application",
	PreRunE: setup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := svc.SubmitApplication(cmd.Context(), usecase.ApplicationRequest{ApplicationID: applicationArg})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), app)
	},
}

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Change the review status of an application",
	PreRunE: setup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := svc.UpdateApplicationStatus(cmd.Context(), usecase.UpdateApplicationStatusRequest{
			ApplicationID: applicationArg,
			Status:        statusArg,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), app)
	},
}

var showCmd = &cobra.Command{
	Use:     "show",
	Short:   "Show an application with todos, fields, sessions and consents",
	PreRunE: setup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		view, err := svc.GetApplication(cmd.Context(), usecase.ApplicationRequest{ApplicationID: applicationArg})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), view)
	},
}

func init() {
	extractSaveCmd.Flags().StringVar(&saveFieldReq.TodoID, "todo", "", "todo ID")
	extractSaveCmd.Flags().StringVar(&saveFieldReq.Value, "value", "", "answer value")
	extractUpdateCmd.Flags().StringVar(&updateFieldReq.FieldID, "field", "", "extracted field ID")
	extractUpdateCmd.Flags().StringVar(&updateFieldReq.Value, "value", "", "corrected value")
	extractCmd.AddCommand(extractSaveCmd, extractUpdateCmd)

	reopenCmd.Flags().StringVar(&reopenReq.TodoID, "todo", "", "todo ID")

	for _, c := range []*cobra.Command{reviewCmd, consentCmd, submitCmd, statusCmd, showCmd} {
		c.Flags().StringVar(&applicationArg, "application", "", "application ID")
	}
	consentCmd.Flags().StringVar(&consentText, "text", "", "consent text shown to the applicant")
	statusCmd.Flags().StringVar(&statusArg, "to", "", "new status: scheduling, interviewed or closed")

	rootCmd.AddCommand(extractCmd, reopenCmd, reviewCmd, consentCmd, submitCmd, statusCmd, showCmd)
}
