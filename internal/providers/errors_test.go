package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyTransport(t *testing.T) {
	assert.Equal(t, ErrorTimeout, ClassifyTransport(fmt.Errorf("post: %w", context.DeadlineExceeded)))
	assert.Equal(t, ErrorConnection, ClassifyTransport(&net.OpError{Op: "dial", Err: errors.New("refused")}))
	assert.Equal(t, ErrorInternal, ClassifyTransport(errors.New("weird")))
}

func TestCategoryAndMessage(t *testing.T) {
	err := fmt.Errorf("submit: %w", NewError(ErrorRejected, AgileLinix, "Error LINIX HTTP 500", nil))
	assert.Equal(t, ErrorRejected, GetCategory(err))
	assert.Equal(t, "Error LINIX HTTP 500", MessageOf(err))
	assert.Equal(t, ErrorInternal, GetCategory(errors.New("plain")))
}
