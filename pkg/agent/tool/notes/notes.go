package notes

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/notelens/notelens/pkg/agent/tool"
	"github.com/notelens/notelens/pkg/domain/interfaces"
	"github.com/notelens/notelens/pkg/service/embedding"
)

// SearchToolName is the tool identifier exposed to the model
const SearchToolName = "search_notes"

const defaultLimit = 5

// New builds the retrieval tools for one chat turn. The tools are
// bound to the verified user so the model can never search another
// user's notes, whatever arguments it produces.
func New(repo interfaces.Repository, embedder *embedding.Embedder, userID string) []gollem.Tool {
	return []gollem.Tool{
		&searchNotesTool{repo: repo, embedder: embedder, userID: userID},
	}
}

// searchNotesTool searches the user's note chunks by vector similarity
type searchNotesTool struct {
	repo     interfaces.Repository
	embedder *embedding.Embedder
	userID   string
}

func (t *searchNotesTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        SearchToolName,
		Description: "Search the user's saved notes by semantic similarity. Returns the most relevant note fragments for the query.",
		Parameters: map[string]*gollem.Parameter{
			"query": {
				Type:        gollem.TypeString,
				Description: "Search query text",
				Required:    true,
			},
			"limit": {
				Type:        gollem.TypeInteger,
				Description: fmt.Sprintf("Maximum number of fragments to return (default: %d)", defaultLimit),
				Required:    false,
			},
		},
	}
}

func (t *searchNotesTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	tool.Update(ctx, fmt.Sprintf("Searching notes: %s", query))

	limit := defaultLimit
	if v, ok := args["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}

	vector, err := t.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed search query", goerr.V("query", query))
	}

	chunks, err := t.repo.Chunk().FindByEmbedding(ctx, t.userID, vector, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search notes by embedding",
			goerr.V("userID", t.userID),
			goerr.V("limit", limit),
		)
	}

	// Zero matches is a normal outcome. The model is told explicitly
	// so it answers "nothing found" instead of inventing content.
	if len(chunks) == 0 {
		return map[string]any{
			"found": false,
			"notes": []string{},
		}, nil
	}

	contents := make([]string, len(chunks))
	for i, c := range chunks {
		contents[i] = c.Content
	}

	return map[string]any{
		"found": true,
		"notes": contents,
	}, nil
}
