package domain

// User is the identity and profile slice accumulated across onboarding.
// Every onboarding step produces a new value; a User is never patched in place.
type User struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Age       string   `json:"age,omitempty"`
	Email     string   `json:"email"`
	Avatar    string   `json:"avatar"` // URL or data URL
	Location  string   `json:"location"`
	Interests []string `json:"interests"`
	Bio       string   `json:"bio,omitempty"`
}

// NewUser builds the user created at the auth step: only id and email are set.
func NewUser(id, email string) User {
	return User{
		ID:        id,
		Email:     email,
		Interests: []string{},
	}
}

// Profile is the payload produced by the profile-setup screen.
type Profile struct {
	Name   string
	Age    string
	City   string
	Avatar string
	Bio    string
}

// Complete reports whether the profile form may be submitted.
// Age is free text; no numeric bounds are enforced.
func (p Profile) Complete() bool {
	return p.Name != "" && p.Age != "" && p.City != "" && p.Avatar != ""
}

// WithProfile returns a copy of u carrying the profile fields.
func (u User) WithProfile(p Profile) User {
	next := u.clone()
	next.Name = p.Name
	next.Age = p.Age
	next.Location = p.City
	next.Avatar = p.Avatar
	if p.Bio != "" {
		next.Bio = p.Bio
	}
	return next
}

// WithInterests returns a copy of u whose interests are replaced by interests.
func (u User) WithInterests(interests []string) User {
	next := u.clone()
	next.Interests = append([]string{}, interests...)
	return next
}

func (u User) clone() User {
	next := u
	next.Interests = append([]string{}, u.Interests...)
	return next
}
