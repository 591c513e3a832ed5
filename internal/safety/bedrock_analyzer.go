package safety

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type bedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockAnalyzer runs semantic classification on an AWS Bedrock model.
type BedrockAnalyzer struct {
	api     bedrockConverseAPI
	modelID string
}

// NewBedrockAnalyzer creates a Bedrock-backed analyzer.
func NewBedrockAnalyzer(api bedrockConverseAPI, modelID string) (*BedrockAnalyzer, error) {
	if api == nil {
		return nil, errors.New("safety: bedrock converse client cannot be nil")
	}
	if strings.TrimSpace(modelID) == "" {
		return nil, errors.New("safety: bedrock model id is required")
	}
	return &BedrockAnalyzer{api: api, modelID: modelID}, nil
}

// Analyze sends the classification prompt to the model and parses its verdict.
func (a *BedrockAnalyzer) Analyze(ctx context.Context, text string) (AnalyzerResult, error) {
	out, err := a.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(a.modelID),
		Messages: []brtypes.Message{
			{
				Role: brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: buildAnalyzerPrompt(text)},
				},
			},
		},
		InferenceConfig: &brtypes.InferenceConfiguration{
			MaxTokens: aws.Int32(200),
			// Low temperature for consistent classification.
			Temperature: aws.Float32(0.1),
		},
	})
	if err != nil {
		return AnalyzerResult{}, fmt.Errorf("%w: %v", ErrAnalyzerUnavailable, err)
	}

	raw, err := bedrockOutputText(out)
	if err != nil {
		return AnalyzerResult{}, err
	}
	return parseAnalyzerOutput(raw)
}

func bedrockOutputText(out *bedrockruntime.ConverseOutput) (string, error) {
	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return "", fmt.Errorf("%w: unexpected bedrock output type", ErrAnalyzerUnavailable)
	}
	var sb strings.Builder
	for _, block := range msg.Value.Content {
		if textBlock, ok := block.(*brtypes.ContentBlockMemberText); ok {
			sb.WriteString(textBlock.Value)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: empty bedrock completion", ErrAnalyzerUnavailable)
	}
	return sb.String(), nil
}
