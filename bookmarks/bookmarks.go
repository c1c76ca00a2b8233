// Package bookmarks is the dashboard over the prompt and collection APIs:
// loading a user's library, filtering it by folder and search text, and saving
// chats as bookmarks. A bookmark is a prompt whose content is the chat URL.
package bookmarks

import (
	"context"
	"slices"
	"strings"

	"github.com/jrsteele09/promptstudio/apiclient"
	"github.com/jrsteele09/promptstudio/identity"
	apperrors "github.com/jrsteele09/promptstudio/internal/errors"
	"github.com/jrsteele09/promptstudio/internal/utils"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	// FolderAll selects every bookmark.
	FolderAll = ""
	// FolderUncategorized selects bookmarks without a collection.
	FolderUncategorized = "uncategorized"

	uncategorizedName = "Uncategorized"
	unknownName       = "Unknown"
)

var ErrEmptyName = errors.New("collection name is required")

// API is the part of the backend the service uses. *apiclient.Client
// implements it.
type API interface {
	MyPrompts(ctx context.Context) ([]apiclient.Prompt, error)
	CreatePrompt(ctx context.Context, in apiclient.CreatePromptRequest) (*apiclient.Prompt, error)
	UpdatePrompt(ctx context.Context, id string, in apiclient.UpdatePromptRequest) (*apiclient.Prompt, error)
	DeletePrompt(ctx context.Context, id string) error

	MyCollections(ctx context.Context) ([]apiclient.Collection, error)
	CreateCollection(ctx context.Context, in apiclient.CollectionRequest) (*apiclient.Collection, error)
	UpdateCollection(ctx context.Context, id string, in apiclient.CollectionRequest) (*apiclient.Collection, error)
	DeleteCollection(ctx context.Context, id string) error
}

var _ API = (*apiclient.Client)(nil)

type Service struct {
	api    API
	logger zerolog.Logger
}

type ServiceOption func(*Service)

func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(api API, options ...ServiceOption) (*Service, error) {
	if api == nil {
		return nil, errors.New("[NewService] API is required")
	}
	s := &Service{api: api, logger: log.Logger}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Library is a user's prompts and collections as loaded together.
type Library struct {
	Prompts     []apiclient.Prompt
	Collections []apiclient.Collection
}

// Load fetches prompts and collections concurrently. Both must succeed.
func (s *Service) Load(ctx context.Context) (*Library, error) {
	var lib Library
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		prompts, err := s.api.MyPrompts(gctx)
		if err != nil {
			return err
		}
		lib.Prompts = prompts
		return nil
	})
	g.Go(func() error {
		collections, err := s.api.MyCollections(gctx)
		if err != nil {
			return err
		}
		lib.Collections = collections
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Err(err).Msg("[Service.Load] failed to load library")
		return nil, err
	}
	return &lib, nil
}

// Collection looks up a collection by id.
func (l *Library) Collection(id string) (apiclient.Collection, bool) {
	i := slices.IndexFunc(l.Collections, func(c apiclient.Collection) bool { return c.ID == id })
	if i < 0 {
		return apiclient.Collection{}, false
	}
	return l.Collections[i], true
}

// Prompt looks up a prompt by id.
func (l *Library) Prompt(id string) (apiclient.Prompt, bool) {
	i := slices.IndexFunc(l.Prompts, func(p apiclient.Prompt) bool { return p.ID == id })
	if i < 0 {
		return apiclient.Prompt{}, false
	}
	return l.Prompts[i], true
}

// FolderName names the folder of a prompt with the given collection id.
func (l *Library) FolderName(collectionID *string) string {
	return FolderName(l.Collections, collectionID)
}

// DefaultCollection is the collection a new bookmark starts in when folder is
// the selected folder: the folder itself when it names an existing
// collection, otherwise none.
func (l *Library) DefaultCollection(folder string) *string {
	if folder == FolderAll || folder == FolderUncategorized {
		return nil
	}
	if _, ok := l.Collection(folder); !ok {
		return nil
	}
	return utils.Ptr(folder)
}

// Filter narrows a prompt list the way the dashboard does.
type Filter struct {
	// Folder is FolderAll, FolderUncategorized or a collection id.
	Folder string
	// Query matches title or URL, case-insensitively.
	Query string
}

func (f Filter) Apply(prompts []apiclient.Prompt) []apiclient.Prompt {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]apiclient.Prompt, 0, len(prompts))
	for _, p := range prompts {
		if !f.inFolder(p) {
			continue
		}
		if query != "" && !containsFold(p.Title, query) && !containsFold(p.Content, query) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (f Filter) inFolder(p apiclient.Prompt) bool {
	collectionID := utils.Value(p.CollectionID)
	switch f.Folder {
	case FolderAll:
		return true
	case FolderUncategorized:
		return collectionID == ""
	default:
		return collectionID == f.Folder
	}
}

func containsFold(s *string, lowerQuery string) bool {
	return s != nil && strings.Contains(strings.ToLower(*s), lowerQuery)
}

// Draft is a bookmark being created (empty ID) or edited.
type Draft struct {
	ID           string
	Title        string
	URL          string
	CollectionID *string
}

// Save creates or updates the bookmark. A signed-in identity with an id is
// required because new prompts carry their owner's id.
func (s *Service) Save(ctx context.Context, user *identity.Identity, d Draft) (*apiclient.Prompt, error) {
	if !user.Valid() {
		return nil, apperrors.ErrUserNotLoaded
	}

	collectionID := utils.NilIfZero(d.CollectionID)

	if d.ID == "" {
		p, err := s.api.CreatePrompt(ctx, apiclient.CreatePromptRequest{
			Title:        utils.Ptr(d.Title),
			Content:      utils.Ptr(d.URL),
			UserID:       user.ID,
			CollectionID: collectionID,
		})
		if err != nil {
			return nil, err
		}
		s.logger.Debug().Str("prompt_id", p.ID).Msg("bookmark created")
		return p, nil
	}

	p, err := s.api.UpdatePrompt(ctx, d.ID, apiclient.UpdatePromptRequest{
		Title:        utils.Ptr(d.Title),
		Content:      utils.Ptr(d.URL),
		CollectionID: collectionID,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("prompt_id", p.ID).Msg("bookmark updated")
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.api.DeletePrompt(ctx, id)
}

// AddCollection creates a collection owned by user.
func (s *Service) AddCollection(ctx context.Context, user *identity.Identity, name string) (*apiclient.Collection, error) {
	req, err := collectionRequest(user, name)
	if err != nil {
		return nil, err
	}
	return s.api.CreateCollection(ctx, req)
}

func (s *Service) RenameCollection(ctx context.Context, user *identity.Identity, id, name string) (*apiclient.Collection, error) {
	req, err := collectionRequest(user, name)
	if err != nil {
		return nil, err
	}
	return s.api.UpdateCollection(ctx, id, req)
}

func (s *Service) DeleteCollection(ctx context.Context, id string) error {
	return s.api.DeleteCollection(ctx, id)
}

func collectionRequest(user *identity.Identity, name string) (apiclient.CollectionRequest, error) {
	if !user.Valid() {
		return apiclient.CollectionRequest{}, apperrors.ErrUserNotLoaded
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return apiclient.CollectionRequest{}, ErrEmptyName
	}
	return apiclient.CollectionRequest{Name: utils.Ptr(name), UserID: user.ID}, nil
}

// FolderName is "Uncategorized" without an id and "Unknown" when the id
// matches no collection or a collection without a name.
func FolderName(collections []apiclient.Collection, collectionID *string) string {
	id := utils.Value(collectionID)
	if id == "" {
		return uncategorizedName
	}
	for _, c := range collections {
		if c.ID == id {
			if name := utils.Value(c.Name); name != "" {
				return name
			}
			break
		}
	}
	return unknownName
}

// CleanChatTitle strips ChatGPT's page title decoration.
func CleanChatTitle(title string) string {
	title = strings.Replace(title, " | ChatGPT", "", 1)
	return strings.Replace(title, "ChatGPT - ", "", 1)
}
