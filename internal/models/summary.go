package models

// UserSummary is the backend's /users/summary payload. Field names follow
// the upstream wire format.
type UserSummary struct {
	Name                   string   `json:"name"`
	Expediente             string   `json:"expediente"`
	GlobalAverage          float64  `json:"promedioGeneral"`
	PreviousAverage        float64  `json:"promedioAnterior"`
	CurrentCredits         int      `json:"creditosActuales"`
	TotalCredits           int      `json:"totalCreditos"`
	ProgressPercent        float64  `json:"porcentajeAvance"`
	SocialServiceDone      bool     `json:"servicioSocialHabilitado"`
	ProfessionalPractice   bool     `json:"practicasProfesionalesHabilitado"`
	EnglishLevel           *int     `json:"nivelIngles"`
}

// CreditsView is the composed credit-progress view served to clients.
type CreditsView struct {
	Current  int             `json:"current"`
	Required int             `json:"required"`
	English  EnglishProgress `json:"english"`

	SocialServiceFulfilled        bool `json:"socialServiceFulfilled"`
	ProfessionalPracticeFulfilled bool `json:"professionalPracticeFulfilled"`
	Mobility                      bool `json:"mobility"`
}

// EnglishProgress tracks language-requirement completion.
type EnglishProgress struct {
	CurrentLevel  int `json:"currentLevel"`
	RequiredLevel int `json:"requiredLevel"`
	Scale         int `json:"scale"`
}
