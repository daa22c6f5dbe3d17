package inference

import (
	"context"
	"net/url"

	"github.com/terraincognita07/moodify/internal/models"
)

// EmotionClient classifies text with a hosted text-classification model.
type EmotionClient struct {
	transport
	model string
}

func NewEmotionClient(baseURL string, token string, model string, opts ...Option) *EmotionClient {
	settings := applyOptions(opts)
	client := &EmotionClient{
		transport: newTransport(baseURL, token, settings.httpClient),
		model:     model,
	}
	if settings.policy != nil {
		client.policy = *settings.policy
	}
	return client
}

type emotionRequest struct {
	Inputs string `json:"inputs"`
}

// Classify returns the flattened label scores for text.
func (c *EmotionClient) Classify(ctx context.Context, text string) ([]models.EmotionScore, error) {
	var nested [][]models.EmotionScore
	path := "/models/" + escapeModelPath(c.model)
	if err := c.postJSON(ctx, path, emotionRequest{Inputs: text}, &nested); err != nil {
		return nil, err
	}

	scores := make([]models.EmotionScore, 0, len(nested))
	for _, group := range nested {
		scores = append(scores, group...)
	}
	return scores, nil
}

// escapeModelPath keeps the owner/name separator of hub model ids.
func escapeModelPath(model string) string {
	return (&url.URL{Path: model}).EscapedPath()
}
