package awsclients

import (
	"context"
	stderrors "errors"

	"github.com/aws/smithy-go"

	"github.com/easyonboard/easyonboard/pkg/errors"
)

// Classify maps an AWS SDK error onto the application error taxonomy so
// the retry layer can tell transient failures from terminal ones. Codes
// it does not recognize come back as internal errors, which fail fast.
func Classify(dependency string, err error) error {
	if err == nil {
		return nil
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewTimeoutError(dependency).WithCause(err)
	}
	if stderrors.Is(err, context.Canceled) {
		return err
	}

	var apiErr smithy.APIError
	if !stderrors.As(err, &apiErr) {
		return errors.NewInternalError("unexpected error calling " + dependency).WithCause(err)
	}

	switch apiErr.ErrorCode() {
	case "InternalServerException",
		"InternalFailure",
		"ServiceUnavailableException",
		"ServiceUnavailable",
		"ServiceFailure",
		"DependencyFailedException",
		"InternalServerError",
		"SlowDown":
		return errors.NewExternalError(dependency, apiErr.ErrorMessage()).WithCause(err)

	case "ThrottlingException",
		"Throttling",
		"TooManyRequestsException",
		"ProvisionedThroughputExceededException",
		"RequestLimitExceeded",
		"LimitExceededException":
		// throttling is transient: the fixed delay gives the service room
		return errors.NewExternalError(dependency, apiErr.ErrorMessage()).WithCause(err)

	case "RequestTimeout",
		"RequestTimeoutException",
		"ModelTimeoutException":
		return errors.NewTimeoutError(dependency).WithCause(err)

	case "ValidationException",
		"ValidationError",
		"InvalidParameterException",
		"InvalidRequestException",
		"BadRequestException",
		"UnsupportedDocumentException",
		"InvalidS3ObjectException":
		return errors.NewValidationError(apiErr.ErrorMessage()).WithCause(err)

	case "AccessDeniedException",
		"AccessDenied",
		"UnauthorizedException",
		"NotAuthorized",
		"UnrecognizedClientException",
		"InvalidSignatureException":
		return errors.NewAuthorizationError(apiErr.ErrorMessage()).WithCause(err)

	case "ResourceNotFoundException",
		"NoSuchKey",
		"NoSuchBucket",
		"NotFoundException",
		"BadDocumentException":
		return errors.NewNotFoundError(dependency).WithCause(err)

	case "ConditionalCheckFailedException",
		"ConflictException",
		"ResourceInUseException":
		return errors.NewConflictError(apiErr.ErrorMessage()).WithCause(err)
	}

	// server faults without a recognized code are still worth retrying
	if apiErr.ErrorFault() == smithy.FaultServer {
		return errors.NewExternalError(dependency, apiErr.ErrorMessage()).WithCause(err)
	}

	return errors.NewInternalError(apiErr.ErrorMessage()).WithCause(err)
}
