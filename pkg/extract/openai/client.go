package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"

	"github.com/orderstack/po-ingest/pkg/config"
	pkgerrors "github.com/orderstack/po-ingest/pkg/errors"
	"github.com/orderstack/po-ingest/pkg/extract"
	"github.com/orderstack/po-ingest/pkg/logger"
	"github.com/orderstack/po-ingest/pkg/po"
)

const extractionPrompt = `You are a purchase order data-entry specialist.
Extract every field you can read from the attached purchase order document.
Rules:
1. Copy values exactly as printed. Do not invent data for fields that are absent; leave them empty.
2. All monetary amounts must be exact decimal strings (e.g. "9.99"), never numbers.
3. Include every line item in the order it appears on the document.
4. customer_part_number is the buyer's own item code; sku is the seller's catalog code. Do not swap them.
5. If the document is not a purchase order, return an empty line_items array.`

var imageMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/bmp":  true,
}

// Extractor reads purchase order documents with an OpenAI vision model and
// structured JSON output.
type Extractor struct {
	client *openai.Client
	model  string
	maxOut int64
	log    *logger.Logger
}

var _ extract.Extractor = (*Extractor)(nil)

func NewExtractor(cfg config.OpenAIConfig, logg *logger.Logger) (*Extractor, error) {
	if cfg.APIKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "openai api key is required")
	}
	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
	)
	return &Extractor{
		client: &client,
		model:  cfg.Model,
		maxOut: cfg.MaxOutputTokens,
		log:    logg,
	}, nil
}

func (e *Extractor) Extract(ctx context.Context, file extract.File) (*po.RawPurchaseOrder, error) {
	content, err := buildContent(file)
	if err != nil {
		return nil, err
	}

	schemaJSON, err := json.Marshal(documentSchema())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshalling document schema")
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding document schema")
	}

	params := responses.ResponseNewParams{
		Model:           shared.ResponsesModel(e.model),
		MaxOutputTokens: param.NewOpt(e.maxOut),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemUnionParam{
					OfMessage: &responses.EasyInputMessageParam{
						Role: responses.EasyInputMessageRoleUser,
						Content: responses.EasyInputMessageContentUnionParam{
							OfInputItemContentList: content,
						},
					},
				},
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "purchase_order_document",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("Structured contents of a purchase order document"),
				},
			},
		},
	}

	resp, err := e.client.Responses.New(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeParseFailed, err, "extraction request failed")
	}

	output := resp.OutputText()
	if output == "" {
		return nil, pkgerrors.New(pkgerrors.CodeParseFailed, "extractor returned empty output")
	}

	var doc document
	if err := json.Unmarshal([]byte(output), &doc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeParseFailed, err, "decoding extractor output")
	}

	raw, err := doc.toRaw()
	if err != nil {
		return nil, err
	}

	if e.log != nil {
		logCtx := e.log.WithFields(ctx, map[string]any{
			"file_name":  file.Name,
			"line_items": len(raw.LineItems),
		})
		e.log.Info(logCtx, "document extracted")
	}

	return raw, nil
}

// buildContent dispatches on mime type. Images travel as data URIs, PDFs as
// base64 input files. Anything else is rejected before a token is spent.
func buildContent(file extract.File) (responses.ResponseInputMessageContentListParam, error) {
	if len(file.Bytes) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeParseFailed, "document has no content")
	}

	content := responses.ResponseInputMessageContentListParam{
		responses.ResponseInputContentUnionParam{
			OfInputText: &responses.ResponseInputTextParam{Text: extractionPrompt},
		},
	}

	mimeType := strings.ToLower(strings.TrimSpace(file.MimeType))
	encoded := base64.StdEncoding.EncodeToString(file.Bytes)

	switch {
	case imageMimeTypes[mimeType]:
		dataURI := fmt.Sprintf("data:%s;base64,%s", mimeType, encoded)
		content = append(content, responses.ResponseInputContentUnionParam{
			OfInputImage: &responses.ResponseInputImageParam{
				ImageURL: param.NewOpt(dataURI),
				Detail:   responses.ResponseInputImageDetailHigh,
			},
		})
	case mimeType == "application/pdf":
		name := file.Name
		if name == "" {
			name = "document.pdf"
		}
		content = append(content, responses.ResponseInputContentUnionParam{
			OfInputFile: &responses.ResponseInputFileParam{
				Filename: param.NewOpt(name),
				FileData: param.NewOpt("data:application/pdf;base64," + encoded),
			},
		})
	default:
		return nil, pkgerrors.New(pkgerrors.CodeUnsupportedFileType,
			fmt.Sprintf("unsupported document type %q", file.MimeType))
	}

	return content, nil
}
