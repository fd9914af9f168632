package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/couchfeed/internal/core/domain"
)

// Document Command Tests

func TestDocumentCmd_Use(t *testing.T) {
	assert.Equal(t, "doc", documentCmd.Use)
}

func TestDocumentCmd_HasSubcommands(t *testing.T) {
	commands := documentCmd.Commands()
	commandNames := make([]string, 0, len(commands))
	for _, cmd := range commands {
		commandNames = append(commandNames, cmd.Name())
	}

	assert.Contains(t, commandNames, "get")
	assert.Contains(t, commandNames, "put")
	assert.Contains(t, commandNames, "delete")
	assert.Contains(t, commandNames, "list")
}

// Document Get Tests

func TestDocumentGetCmd_RequiresTwoArgs(t *testing.T) {
	_, err := executeCommand(t, "doc", "get", "contacts")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 2 arg(s)")
}

func TestDocumentGetCmd_PrintsDocument(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.docs.add(t, "contacts", `{"_id":"alice","_rev":"1-abc","name":"Alice","age":30}`)

	out, err := executeCommand(t, "doc", "get", "contacts", "alice")

	require.NoError(t, err)
	assert.Equal(t, `{"_id":"alice","_rev":"1-abc","name":"Alice","age":30}`+"\n", out)
}

func TestDocumentGetCmd_Pretty(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.docs.add(t, "contacts", `{"_id":"alice","_rev":"1-abc","name":"Alice"}`)

	out, err := executeCommand(t, "doc", "get", "contacts", "alice", "--pretty")

	require.NoError(t, err)
	assert.Contains(t, out, "\n  \"name\": \"Alice\"")
}

func TestDocumentGetCmd_NotFound(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand(t, "doc", "get", "contacts", "ghost")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "document ghost not found in contacts")
}

func TestDocumentGetCmd_ServiceNotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	documentService = nil

	_, err := executeCommand(t, "doc", "get", "contacts", "alice")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "document service not configured")
}

// Document Put Tests

func TestDocumentPutCmd_FromArgument(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(t, "doc", "put", "contacts", `{"_id":"alice","name":"Alice"}`)

	require.NoError(t, err)
	assert.Equal(t, "alice 1-mock\n", out)
	_, ok := ts.docs.docs["contacts/alice"]
	assert.True(t, ok)
}

func TestDocumentPutCmd_FromStdin(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	in := strings.NewReader(`{"name":"Bob"}`)
	out, err := executeCommandWith(t, t.Context(), in, "doc", "put", "contacts")

	require.NoError(t, err)
	assert.Equal(t, "generated-1 1-mock\n", out)
	assert.Len(t, ts.docs.docs, 1)
}

func TestDocumentPutCmd_IDFlag(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(t, "doc", "put", "contacts", `{"name":"Carol"}`, "--id", "carol")

	require.NoError(t, err)
	assert.Equal(t, "carol 1-mock\n", out)
	assert.Contains(t, ts.docs.docs, "contacts/carol")
}

func TestDocumentPutCmd_UUIDFlag(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(t, "doc", "put", "contacts", `{"name":"Dan"}`, "--uuid")

	require.NoError(t, err)
	fields := strings.Fields(out)
	require.Len(t, fields, 2)
	assert.Len(t, fields[0], 36)
	assert.Equal(t, "1-mock", fields[1])
}

func TestDocumentPutCmd_BodyIDWins(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand(t, "doc", "put", "contacts", `{"_id":"erin"}`, "--id", "other")

	require.NoError(t, err)
	assert.Contains(t, ts.docs.docs, "contacts/erin")
	assert.NotContains(t, ts.docs.docs, "contacts/other")
}

func TestDocumentPutCmd_Update(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.docs.add(t, "contacts", `{"_id":"alice","_rev":"1-mock","name":"Alice"}`)

	out, err := executeCommand(t, "doc", "put", "contacts", `{"_id":"alice","_rev":"1-mock","name":"Alicia"}`)

	require.NoError(t, err)
	assert.Equal(t, "alice 2-mock\n", out)
}

func TestDocumentPutCmd_Conflict(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.docs.add(t, "contacts", `{"_id":"alice","_rev":"3-mock"}`)

	_, err := executeCommand(t, "doc", "put", "contacts", `{"_id":"alice","_rev":"1-mock"}`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "changed by someone else")
}

func TestDocumentPutCmd_InvalidJSON(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand(t, "doc", "put", "contacts", `{"name":`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid document")
}

func TestDocumentPutCmd_EmptyBody(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand(t, "doc", "put", "contacts")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no document body")
}

// Document Delete Tests

func TestDocumentDeleteCmd_WithRev(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.docs.add(t, "contacts", `{"_id":"alice","_rev":"2-mock"}`)

	out, err := executeCommand(t, "doc", "delete", "contacts", "alice", "--rev", "2-mock")

	require.NoError(t, err)
	assert.Contains(t, out, "Deleted alice from contacts.")
	assert.Equal(t, []domain.DocumentRef{{ID: "alice", Revision: "2-mock"}}, ts.docs.deleted)
}

func TestDocumentDeleteCmd_Latest(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.docs.add(t, "contacts", `{"_id":"alice","_rev":"5-mock"}`)

	_, err := executeCommand(t, "doc", "delete", "contacts", "alice", "--latest")

	require.NoError(t, err)
	require.Len(t, ts.docs.deleted, 1)
	assert.Equal(t, "5-mock", ts.docs.deleted[0].Revision)
}

func TestDocumentDeleteCmd_WithoutRevision(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand(t, "doc", "delete", "contacts", "alice")

	require.Error(t, err)
	assert.True(t, domain.IsPrecondition(err))
	assert.Contains(t, err.Error(), "pass --rev or --latest")
	assert.Empty(t, ts.docs.deleted)
}

func TestDocumentDeleteCmd_Failure(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.docs.err = errors.New("connection reset")

	_, err := executeCommand(t, "doc", "delete", "contacts", "alice", "--rev", "1-a")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete document")
}

// Document List Tests

func TestDocumentListCmd_ListsRevisions(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.docs.add(t, "contacts", `{"_id":"alice","_rev":"1-a"}`)
	ts.docs.add(t, "contacts", `{"_id":"bob","_rev":"3-b"}`)
	ts.docs.add(t, "notes", `{"_id":"todo","_rev":"1-c"}`)

	out, err := executeCommand(t, "doc", "list", "contacts")

	require.NoError(t, err)
	assert.Contains(t, out, "alice  1-a")
	assert.Contains(t, out, "bob    3-b")
	assert.NotContains(t, out, "todo")
	assert.Contains(t, out, "Total: 2 documents")
}

func TestDocumentListCmd_Empty(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(t, "doc", "list", "contacts")

	require.NoError(t, err)
	assert.Contains(t, out, "No documents in contacts")
}

func TestDocumentListCmd_Alias(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand(t, "document", "list", "contacts")

	assert.NoError(t, err)
}
