package emailsvc

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/pkg/errors"

	"github.com/trezcool/quizadmin/core"
)

// sesAPI is the part of *ses.Client used here.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type sesService struct {
	client     sesAPI
	conf       *core.Config
	subjPrefix string
	logger     core.Logger
}

var _ core.EmailService = (*sesService)(nil)

// NewSESService delivers through Amazon SES using the default AWS credential chain.
func NewSESService(ctx context.Context, conf *core.Config, logger core.Logger) (core.EmailService, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(conf.Mail.SESRegion))
	if err != nil {
		return nil, errors.Wrap(err, "loading AWS config")
	}
	return newSESService(ses.NewFromConfig(awsCfg), conf, logger), nil
}

func newSESService(client sesAPI, conf *core.Config, logger core.Logger) *sesService {
	return &sesService{
		client:     client,
		conf:       conf,
		subjPrefix: "[" + conf.AppName + "] ",
		logger:     logger,
	}
}

func (svc *sesService) Name() string { return "ses" }

func (svc *sesService) Send(ctx context.Context, msg *core.EmailMessage) error {
	ok, err := prepare(msg)
	if err != nil || !ok {
		return err
	}

	from := svc.conf.DefaultFromEmail
	if msg.From.Address != "" {
		from = msg.From
	}
	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses:  addressStrings(msg.To),
			CcAddresses:  addressStrings(msg.Cc),
			BccAddresses: addressStrings(msg.Bcc),
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(svc.subjPrefix + msg.Subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(msg.TextContent), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(from.String()),
	}
	return withRetry(ctx, svc.conf.Mail, svc.logger, svc.Name(), func() error {
		if _, err := svc.client.SendEmail(ctx, input); err != nil {
			return errors.Wrap(err, "ses send email")
		}
		return nil
	})
}
