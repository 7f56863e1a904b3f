package main

import (
	"github.com/spf13/cobra"

	"github.com/hireflow/intake-engine/internal/usecase"
)

var (
	startReq   usecase.StartInterviewRequest
	startSoft  int
	startHard  int
	turnReq    usecase.RecordTurnRequest
	agentReq   usecase.ChangeAgentRequest
	sessionArg string
)

var startCmd = &cobra.Command{
	Use:     "start",
	Short:   "Open an application and its interview session",
	PreRunE: setup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		req := startReq
		if cmd.Flags().Changed("soft-cap") {
			req.SoftCap = &startSoft
		}
		if cmd.Flags().Changed("hard-cap") {
			req.HardCap = &startHard
		}
		res, err := svc.StartInterview(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var turnCmd = &cobra.Command{
	Use:   "turn",
	Short: "Record one chat turn event",
	Long: `Record one chat turn event on a session. Events:
  question_sent, answer_received, extraction_succeeded, needs_clarification,
  clarification_sent (all need --todo), extraction_failed, review_failed,
  review_passed, timeout.`,
	PreRunE: setup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		res, err := svc.RecordTurn(cmd.Context(), turnReq)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var agentCmd = &cobra.Command{
	Use:     "agent",
	Short:   "Hand a session to another agent",
	PreRunE: setup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := svc.ChangeAgent(cmd.Context(), agentReq)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), s)
	},
}

var completeCmd = &cobra.Command{
	Use:     "complete",
	Short:   "Complete a chat session",
	PreRunE: setup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := svc.CompleteSession(cmd.Context(), usecase.CompleteSessionRequest{SessionID: sessionArg})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), s)
	},
}

var sessionCmd = &cobra.Command{
	Use:     "session",
	Short:   "Show a session with its transcript",
	PreRunE: setup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		view, err := svc.GetSession(cmd.Context(), sessionArg)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), view)
	},
}

func init() {
	f := startCmd.Flags()
	f.StringVar(&startReq.JobID, "job", "", "job ID")
	f.StringVar(&startReq.SchemaVersionID, "schema", "", "form schema version ID")
	f.StringVar(&startReq.Contact.Name, "name", "", "applicant name")
	f.StringVar(&startReq.Contact.Email, "email", "", "applicant email")
	f.StringVar(&startReq.Contact.Phone, "phone", "", "applicant phone")
	f.IntVar(&startSoft, "soft-cap", 0, "soft turn cap (0 = unlimited, default from config)")
	f.IntVar(&startHard, "hard-cap", 0, "hard turn cap (0 = unlimited, default from config)")

	f = turnCmd.Flags()
	f.StringVar(&turnReq.SessionID, "session", "", "chat session ID")
	f.StringVar(&turnReq.TodoID, "todo", "", "todo ID the event applies to")
	f.StringVar(&turnReq.Event, "event", "", "turn event")
	f.StringVar(&turnReq.Value, "value", "", "extracted value (extraction_succeeded)")
	f.StringVar(&turnReq.Message, "message", "", "chat message to append to the transcript")
	f.StringVar(&turnReq.Role, "role", "", "message role: applicant, assistant or system")

	agentCmd.Flags().StringVar(&agentReq.SessionID, "session", "", "chat session ID")
	agentCmd.Flags().StringVar(&agentReq.Agent, "agent", "", "orchestrator, interviewer, extractor or reviewer")

	completeCmd.Flags().StringVar(&sessionArg, "session", "", "chat session ID")
	sessionCmd.Flags().StringVar(&sessionArg, "session", "", "chat session ID")

	rootCmd.AddCommand(startCmd, turnCmd, agentCmd, completeCmd, sessionCmd)
}
