package mainconfig

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/garanley/claims-intake/internal/config"
)

func TestLoadAWSConfigEndpointOverride(t *testing.T) {
	cfg := &appconfig.Config{
		AWSRegion:           "eu-west-1",
		AWSAccessKeyID:      "test",
		AWSSecretAccessKey:  "test",
		AWSEndpointOverride: "http://localstack:4566",
	}

	awsCfg, err := LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if awsCfg.Region != "eu-west-1" {
		t.Fatalf("expected region eu-west-1, got %q", awsCfg.Region)
	}

	for _, service := range []string{bedrockruntime.ServiceID, sesv2.ServiceID} {
		ep, err := awsCfg.EndpointResolverWithOptions.ResolveEndpoint(service, "eu-west-1")
		if err != nil {
			t.Fatalf("%s: %v", service, err)
		}
		if ep.URL != "http://localstack:4566" {
			t.Fatalf("%s: expected override URL, got %q", service, ep.URL)
		}
	}

	if _, err := awsCfg.EndpointResolverWithOptions.ResolveEndpoint("S3", "eu-west-1"); err == nil {
		t.Fatalf("expected other services to use default resolution")
	}

	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("retrieve creds: %v", err)
	}
	if creds.AccessKeyID != "test" {
		t.Fatalf("expected static credentials, got %q", creds.AccessKeyID)
	}
}

func TestLoaderCachesResult(t *testing.T) {
	load := Loader(&appconfig.Config{AWSRegion: "eu-south-2", AWSAccessKeyID: "a", AWSSecretAccessKey: "b"})

	first, err := load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	second, _ := load(context.Background())
	if first.Region != second.Region || first.Region != "eu-south-2" {
		t.Fatalf("expected cached config, got %q and %q", first.Region, second.Region)
	}
}
