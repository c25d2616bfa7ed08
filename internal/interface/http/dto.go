package handlers

import (
	"time"

	"github.com/oksasatya/go-bookshelf-rbac/internal/application"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
)

type userResponse struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email,omitempty"`
	Role      entity.Role `json:"role"`
	Bio       string      `json:"bio"`
	AvatarURL string      `json:"avatar_url"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// toUser renders the caller's own account, email included.
func toUser(u *entity.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		Bio:       u.Bio,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type publicUserResponse struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Role      entity.Role `json:"role"`
	Bio       string      `json:"bio"`
	AvatarURL string      `json:"avatar_url"`
}

// toPublicUser renders someone else's account without contact details.
func toPublicUser(u *entity.User) publicUserResponse {
	return publicUserResponse{ID: u.ID, Username: u.Username, Role: u.Role, Bio: u.Bio, AvatarURL: u.AvatarURL}
}

func toPublicUsers(us []*entity.User) []publicUserResponse {
	out := make([]publicUserResponse, 0, len(us))
	for _, u := range us {
		out = append(out, toPublicUser(u))
	}
	return out
}

type authorResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toAuthor(a *entity.Author) authorResponse {
	return authorResponse{ID: a.ID, Name: a.Name, CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt}
}

type bookResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	PublicationYear int       `json:"publication_year"`
	AuthorID        string    `json:"author_id"`
	AuthorName      string    `json:"author_name"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toBook(b *entity.Book) bookResponse {
	return bookResponse{
		ID:              b.ID,
		Title:           b.Title,
		PublicationYear: b.PublicationYear,
		AuthorID:        b.AuthorID,
		AuthorName:      b.AuthorName,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func toBooks(bs []*entity.Book) []bookResponse {
	out := make([]bookResponse, 0, len(bs))
	for _, b := range bs {
		out = append(out, toBook(b))
	}
	return out
}

type libraryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	LibrarianID string    `json:"librarian_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toLibrary(l *entity.Library) libraryResponse {
	return libraryResponse{ID: l.ID, Name: l.Name, LibrarianID: l.LibrarianID, CreatedAt: l.CreatedAt, UpdatedAt: l.UpdatedAt}
}

type libraryDetailResponse struct {
	libraryResponse
	Librarian *publicUserResponse `json:"librarian,omitempty"`
	Books     []bookResponse      `json:"books"`
}

func toLibraryDetail(d *application.LibraryDetail) libraryDetailResponse {
	out := libraryDetailResponse{libraryResponse: toLibrary(d.Library), Books: toBooks(d.Books)}
	if d.Librarian != nil {
		lu := toPublicUser(d.Librarian)
		out.Librarian = &lu
	}
	return out
}
