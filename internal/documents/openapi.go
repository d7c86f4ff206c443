package documents

import "github.com/rajinweb/contract-esign-sub000/pkg/openapi"

type spec struct {
	List           *openapi.Operation
	Search         *openapi.Operation
	Save           *openapi.Operation
	Find           *openapi.Operation
	Versions       *openapi.Operation
	Transition     *openapi.Operation
	DownloadSigned *openapi.Operation
	Schemas        map[string]*openapi.Schema
}

// Spec documents the document endpoints.
var Spec = spec{
	List: &openapi.Operation{
		Summary:     "List documents",
		Description: "Returns the caller's documents, most recently updated first.",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("page", "integer", "Page number", false),
			openapi.QueryParam("pageSize", "integer", "Results per page", false),
			openapi.QueryParam("search", "string", "Name search", false),
			openapi.QueryParam("sort", "string", "Sort fields", false),
			openapi.QueryParam("status", "string", "Document status filter; comma-separated for several", false),
			openapi.QueryParam("name", "string", "Name filter", false),
			openapi.QueryParam("fileName", "string", "File name filter", false),
			openapi.QueryParam("recipient", "string", "Recipient email", false),
			openapi.QueryParam("updatedSince", "string", "RFC 3339 lower bound on updatedAt, inclusive", false),
			openapi.QueryParam("updatedBefore", "string", "RFC 3339 upper bound on updatedAt, exclusive", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Page of documents", "DocumentPage"),
			400: openapi.ResponseRef("BadRequest"),
			401: openapi.ResponseRef("Unauthorized"),
		},
	},
	Search: &openapi.Operation{
		Summary:     "Search documents",
		RequestBody: openapi.RequestBodyJSON("DocumentSearch", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Page of documents", "DocumentPage"),
			400: openapi.ResponseRef("BadRequest"),
			401: openapi.ResponseRef("Unauthorized"),
		},
	},
	Save: &openapi.Operation{
		Summary: "Save a document",
		Description: "Creates a document, updates its open version in place, or forks a new version " +
			"when the current one is finalized. Saves with no relevant change are acknowledged without writing.",
		RequestBody: openapi.RequestBodyMultipart(&openapi.Schema{
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"file":        {Type: "string", Format: "binary", Description: "PDF bytes"},
				"name":        {Type: "string", Description: "Document display name"},
				"fileName":    {Type: "string", Description: "Requested file name"},
				"documentId":  {Type: "string", Format: "uuid", Description: "Existing document; omit to create"},
				"fields":      {Type: "string", Description: "JSON encoded field array"},
				"recipients":  {Type: "string", Description: "JSON encoded recipient array"},
				"changeLog":   {Type: "string"},
				"baseVersion": {Type: "integer", Description: "Version the editor loaded; rejected with 409 when stale"},
			},
			Required: []string{"file"},
		}),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Saved or unchanged", "SaveResult"),
			201: openapi.ResponseJSON("Created or forked", "SaveResult"),
			400: openapi.ResponseRef("BadRequest"),
			401: openapi.ResponseRef("Unauthorized"),
			403: openapi.ResponseRef("Forbidden"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
			413: openapi.ResponseRef("PayloadTooLarge"),
		},
	},
	Find: &openapi.Operation{
		Summary:    "Find document by ID",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Document UUID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Document", "Document"),
			400: openapi.ResponseRef("BadRequest"),
			403: openapi.ResponseRef("Forbidden"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Versions: &openapi.Operation{
		Summary:    "List document versions",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Document UUID")},
		Responses: map[int]*openapi.Response{
			200: {
				Description: "Versions, oldest first, without PDF bytes",
				Content: map[string]*openapi.MediaType{
					"application/json": {Schema: openapi.ArrayOf("Version")},
				},
			},
			403: openapi.ResponseRef("Forbidden"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Transition: &openapi.Operation{
		Summary:     "Change document status",
		Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Document UUID")},
		RequestBody: openapi.RequestBodyJSON("StatusRequest", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Updated document", "Document"),
			400: openapi.ResponseRef("BadRequest"),
			403: openapi.ResponseRef("Forbidden"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	DownloadSigned: &openapi.Operation{
		Summary:     "Download the signed copy",
		Description: "Renders field values onto the current version and appends the certificate of completion.",
		Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Document UUID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseBinary("Signed PDF", "application/pdf"),
			400: openapi.ResponseRef("BadRequest"),
			403: openapi.ResponseRef("Forbidden"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Schemas: map[string]*openapi.Schema{
		"Document": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":             {Type: "string", Format: "uuid"},
				"ownerId":        {Type: "string"},
				"name":           {Type: "string"},
				"fileName":       {Type: "string"},
				"status":         {Type: "string", Enum: []any{StatusDraft, StatusSent, StatusSigned, StatusCompleted, StatusVoided, StatusRejected}},
				"currentVersion": {Type: "integer"},
				"recipients":     openapi.ArrayOf("Recipient"),
				"createdAt":      {Type: "string", Format: "date-time"},
				"updatedAt":      {Type: "string", Format: "date-time"},
			},
		},
		"Version": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"documentId":       {Type: "string", Format: "uuid"},
				"version":          {Type: "integer"},
				"filePath":         {Type: "string"},
				"fileName":         {Type: "string"},
				"status":           {Type: "string", Enum: []any{VersionDraft, VersionSave, VersionSent, VersionFinal, VersionError}},
				"fields":           openapi.ArrayOf("Field"),
				"pageCount":        {Type: "integer"},
				"changeLog":        {Type: "string"},
				"signingExpiresAt": {Type: "string", Format: "date-time"},
				"createdAt":        {Type: "string", Format: "date-time"},
				"updatedAt":        {Type: "string", Format: "date-time"},
			},
		},
		"Field": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":          {Type: "string"},
				"type":        {Type: "string"},
				"value":       {Type: "string", Description: "Text, date, checkbox state or image data URI"},
				"pageNumber":  {Type: "integer", Description: "1-based page"},
				"x":           {Type: "number"},
				"y":           {Type: "number"},
				"width":       {Type: "number"},
				"height":      {Type: "number"},
				"recipientId": {Type: "string"},
				"required":    {Type: "boolean"},
			},
		},
		"Recipient": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":         {Type: "string"},
				"name":       {Type: "string"},
				"email":      {Type: "string"},
				"role":       {Type: "string"},
				"status":     {Type: "string"},
				"signedAt":   {Type: "string", Format: "date-time"},
				"ipAddress":  {Type: "string"},
				"order":      {Type: "integer"},
				"fieldCount": {Type: "integer"},
			},
		},
		"SaveResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"success":    {Type: "boolean"},
				"documentId": {Type: "string", Format: "uuid"},
				"version":    {Type: "integer"},
				"fileUrl":    {Type: "string"},
				"fileName":   {Type: "string"},
				"message":    {Type: "string"},
				"outcome":    {Type: "string", Enum: []any{OutcomeCreated, OutcomeUnchanged, OutcomeUpdated, OutcomeHealed, OutcomeForked}},
			},
		},
		"StatusRequest": {
			Type:       "object",
			Properties: map[string]*openapi.Schema{"status": {Type: "string"}},
			Required:   []string{"status"},
		},
		"DocumentSearch": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"page":          {Type: "integer"},
				"pageSize":      {Type: "integer"},
				"search":        {Type: "string"},
				"status":        {Type: "string"},
				"statuses":      {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"name":          {Type: "string"},
				"fileName":      {Type: "string"},
				"recipient":     {Type: "string", Format: "email"},
				"updatedSince":  {Type: "string", Format: "date-time"},
				"updatedBefore": {Type: "string", Format: "date-time"},
			},
		},
		"DocumentPage": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data":       openapi.ArrayOf("Document"),
				"total":      {Type: "integer"},
				"page":       {Type: "integer"},
				"pageSize":   {Type: "integer"},
				"totalPages": {Type: "integer"},
			},
		},
	},
}
