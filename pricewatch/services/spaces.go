// services/spaces.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type SpacesService struct {
	client     *s3.Client
	bucket     string
	region     string
	ReportRoot string
}

func NewSpacesService(spacesKey, spacesSecret, region, bucket, reportRoot string) *SpacesService {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.digitaloceanspaces.com", region),
		}, nil
	})

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(spacesKey, spacesSecret, "")),
		config.WithRegion(region),
	)
	if err != nil {
		panic(fmt.Sprintf("Unable to load Spaces config: %v", err))
	}

	client := s3.NewFromConfig(cfg)

	return &SpacesService{
		client:     client,
		bucket:     bucket,
		region:     region,
		ReportRoot: strings.TrimPrefix(reportRoot, "/"),
	}
}

// UploadRunReport stores a batch run's CSV report under
// {reportRoot}/{runID}.csv.
func (s *SpacesService) UploadRunReport(ctx context.Context, runID string, body []byte) error {
	key := fmt.Sprintf("%s/%s.csv", s.ReportRoot, runID)
	contentType := "text/csv"

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: &contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload run report %s: %w", key, err)
	}
	return nil
}

func (s *SpacesService) GetBucket() string {
	return s.bucket
}

func (s *SpacesService) GetRegion() string {
	return s.region
}
