package cdn

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/eldritchtools/datapurge/internal/purge"
)

// InvalidationClient abstracts the CloudFront invalidation API.
type InvalidationClient interface {
	CreateInvalidation(ctx context.Context, params *cloudfront.CreateInvalidationInput, optFns ...func(*cloudfront.Options)) (*cloudfront.CreateInvalidationOutput, error)
}

// CloudFront purges paths from a distribution with one invalidation batch.
// CloudFront invalidates every cached variant of a path, so origins collapse
// to a single path each.
type CloudFront struct {
	client         InvalidationClient
	distributionID string
	newReference   func() string
}

// NewCloudFront returns a CloudFront purger for the given distribution.
func NewCloudFront(client InvalidationClient, distributionID string) *CloudFront {
	return &CloudFront{
		client:         client,
		distributionID: distributionID,
		newReference:   uuid.NewString,
	}
}

// InvalidationPaths returns the unique, slash-prefixed paths in the payload.
func InvalidationPaths(payload *purge.Payload) []string {
	seen := make(map[string]bool, len(payload.Paths))
	paths := make([]string, 0, len(payload.Paths))
	for _, p := range payload.Paths {
		path := "/" + p
		if seen[path] {
			continue
		}
		seen[path] = true
		paths = append(paths, path)
	}
	return paths
}

// Purge creates a single invalidation for every path in the payload.
func (c *CloudFront) Purge(ctx context.Context, payload *purge.Payload) Outcome {
	paths := InvalidationPaths(payload)
	ref := c.newReference()

	resp, err := c.client.CreateInvalidation(ctx, &cloudfront.CreateInvalidationInput{
		DistributionId: &c.distributionID,
		InvalidationBatch: &cftypes.InvalidationBatch{
			CallerReference: &ref,
			Paths: &cftypes.Paths{
				Quantity: int32Ptr(int32(len(paths))),
				Items:    paths,
			},
		},
	})

	out := newOutcome(payload)
	out.Err = err
	if err != nil {
		var httpErr interface{ HTTPStatusCode() int }
		if errors.As(err, &httpErr) {
			out.StatusCode = httpErr.HTTPStatusCode()
		}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			out.Body = fmt.Sprintf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
		} else {
			out.Body = err.Error()
		}
		return out
	}

	out.Success = true
	out.StatusCode = http.StatusCreated
	if resp != nil && resp.Invalidation != nil && resp.Invalidation.Id != nil {
		out.Body = fmt.Sprintf("invalidation %s", *resp.Invalidation.Id)
	}
	return out
}

func int32Ptr(i int32) *int32 { return &i }
