package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("mind_map",
		mcp.WithPromptDescription("Lay out a mind map of notes connected to a central topic"),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("Central topic of the mind map"),
			mcp.RequiredArgument(),
		),
	), s.handleMindMapPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("study_plan",
		mcp.WithPromptDescription("Organise a subject into material blocks with a linked overview"),
		mcp.WithArgument("subject",
			mcp.ArgumentDescription("Subject to study"),
			mcp.RequiredArgument(),
		),
	), s.handleStudyPlanPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("retrospective",
		mcp.WithPromptDescription("Set up a team retrospective board with frames for each column"),
		mcp.WithArgument("team",
			mcp.ArgumentDescription("Team or project name"),
			mcp.RequiredArgument(),
		),
	), s.handleRetrospectivePrompt)
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.TextContent{Type: "text", Text: text},
			},
		},
	}
}

func (s *Server) handleMindMapPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := req.Params.Arguments["topic"]
	return userPrompt(fmt.Sprintf("Mind map for: %s", topic), fmt.Sprintf(`Build a mind map about "%s" on the active board. Follow these steps:

1. Use create_note with the text "%s" and an explicit x/y near the middle of the free space; this is the hub
2. Create one create_note per main idea (4 to 8 of them), letting auto-layout place them
3. Link the hub to each idea with connect_elements (fromId = hub)
4. For ideas with details, add smaller create_text labels and connect them to their idea
5. Finish with arrange_elements only if the result is cluttered

Keep note text short: one idea per note.`, topic, topic)), nil
}

func (s *Server) handleStudyPlanPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	subject := req.Params.Arguments["subject"]
	return userPrompt(fmt.Sprintf("Study plan for: %s", subject), fmt.Sprintf(`Organise a study plan for "%s" on the active board. Follow these steps:

1. Split the subject into 3 to 6 units in learning order
2. Use create_block once per unit, titled "<n>. <unit name>"
3. Connect consecutive blocks with connect_elements so the order reads left to right
4. Add a create_note next to each block with the key questions for that unit
5. Use create_link for any reference material the user mentioned`, subject)), nil
}

func (s *Server) handleRetrospectivePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	team := req.Params.Arguments["team"]
	return userPrompt(fmt.Sprintf("Retrospective for: %s", team), fmt.Sprintf(`Set up a retrospective board for %s. Follow these steps:

1. Use create_board named "%s retrospective" (it becomes the active board)
2. Create three frames side by side with create_frame: "Went well", "To improve", "Action items"
3. Add one starter create_note inside each frame (pass x/y inside the frame bounds)
4. Use a green note color (#bbf7d0) for "Went well", yellow (#fde68a) for "To improve" and blue (#bfdbfe) for "Action items"`, team, team)), nil
}
