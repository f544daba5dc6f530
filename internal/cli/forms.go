package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/dealflow/internal/cli/formatter"
	"github.com/alexanderramin/dealflow/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// dealflowHuhTheme returns a huh theme using the formatter's Gruvbox palette.
func dealflowHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	// Focused state: orange accent
	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(formatter.ColorRed)

	// Blurred state: dimmed
	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

func requiredField(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

// validateMoney accepts a non-negative amount, allowing "$" and ",".
func validateMoney(s string) error {
	if _, err := parseMoney(s); err != nil {
		return err
	}
	return nil
}

func parseMoney(s string) (float64, error) {
	clean := strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if clean == "" {
		return 0, fmt.Errorf("value is required")
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("enter an amount of zero or more")
	}
	return v, nil
}

// validateProbability accepts empty or a whole percentage.
func validateProbability(s string) error {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if err != nil || v < 0 || v > 100 {
		return fmt.Errorf("enter a number from 0 to 100")
	}
	return nil
}

// validatePositiveInt accepts empty or a positive integer.
func validatePositiveInt(s string) error {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return fmt.Errorf("enter a positive number")
	}
	return nil
}

// validateOptionalDate accepts empty or a YYYY-MM-DD date string.
func validateOptionalDate(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return fmt.Errorf("use YYYY-MM-DD format")
	}
	return nil
}

// wizardConfirm creates a huh form for a yes/no confirmation.
func wizardConfirm(title string, result *bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(result),
		),
	).WithTheme(dealflowHuhTheme()).WithShowHelp(false)
}

func contactOptions(contacts []domain.Contact) []huh.Option[int64] {
	opts := make([]huh.Option[int64], 0, len(contacts))
	for _, c := range contacts {
		label := c.Name
		if c.Company != "" {
			label += " (" + c.Company + ")"
		}
		opts = append(opts, huh.NewOption(label, c.ID))
	}
	return opts
}

// ── deal form ────────────────────────────────────────────────────────────────

// dealForm collects deal fields as text and converts them once the form
// completes.
type dealForm struct {
	form *huh.Form

	Title       string
	Value       string
	ContactID   int64
	StageID     string
	Probability string
	CloseDate   string
	Notes       string
	Tags        string
}

// newDealForm builds the create form (existing nil) or the edit form. The
// stage select only appears on create; moves go through the board.
func newDealForm(stages *domain.StageRegistry, contacts []domain.Contact, existing *domain.Deal, stageID string) *dealForm {
	f := &dealForm{StageID: stageID}
	if existing != nil {
		f.Title = existing.Title
		f.Value = strconv.FormatFloat(existing.Value, 'f', -1, 64)
		f.ContactID = existing.ContactID
		f.Probability = strconv.Itoa(existing.Probability)
		if existing.ExpectedCloseDate != nil {
			f.CloseDate = existing.ExpectedCloseDate.Format("2006-01-02")
		}
		f.Notes = existing.Notes
		f.Tags = strings.Join(existing.Tags, ", ")
	} else if len(contacts) > 0 {
		f.ContactID = contacts[0].ID
	}

	fields := []huh.Field{
		huh.NewInput().Title("Title").Value(&f.Title).Validate(requiredField("title")),
		huh.NewInput().Title("Value").Placeholder("12500").Value(&f.Value).Validate(validateMoney),
		huh.NewSelect[int64]().Title("Contact").Options(contactOptions(contacts)...).Value(&f.ContactID),
	}
	probHint := "0-100"
	if existing == nil {
		opts := make([]huh.Option[string], 0, stages.Len())
		for _, s := range stages.All() {
			opts = append(opts, huh.NewOption(fmt.Sprintf("%s (%d%%)", s.Name, s.DefaultProbability), s.ID))
		}
		if f.StageID == "" {
			f.StageID = stages.First().ID
		}
		fields = append(fields, huh.NewSelect[string]().Title("Stage").Options(opts...).Value(&f.StageID))
		probHint = "blank for the stage default"
	}
	fields = append(fields,
		huh.NewInput().Title("Probability").Placeholder(probHint).Value(&f.Probability).Validate(validateProbability),
		huh.NewInput().Title("Expected close").Placeholder("YYYY-MM-DD").Value(&f.CloseDate).Validate(validateOptionalDate),
		huh.NewInput().Title("Tags").Placeholder("comma separated").Value(&f.Tags),
		huh.NewText().Title("Notes").Value(&f.Notes),
	)

	f.form = huh.NewForm(huh.NewGroup(fields...)).WithTheme(dealflowHuhTheme()).WithShowHelp(false)
	return f
}

func (f *dealForm) probability() (*int, error) {
	s := strings.TrimSuffix(strings.TrimSpace(f.Probability), "%")
	if s == "" {
		return nil, nil
	}
	p, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("invalid probability %q", f.Probability)
	}
	return &p, nil
}

func (f *dealForm) input() (domain.DealInput, error) {
	value, err := parseMoney(f.Value)
	if err != nil {
		return domain.DealInput{}, err
	}
	prob, err := f.probability()
	if err != nil {
		return domain.DealInput{}, err
	}
	closeDate, err := parseOptionalDate(f.CloseDate)
	if err != nil {
		return domain.DealInput{}, err
	}
	return domain.DealInput{
		Title:             strings.TrimSpace(f.Title),
		Value:             value,
		StageID:           f.StageID,
		Probability:       prob,
		ContactID:         f.ContactID,
		ExpectedCloseDate: closeDate,
		Notes:             f.Notes,
		Tags:              splitTags(f.Tags),
	}, nil
}

// patch compares the form with orig and sets only the fields that changed.
func (f *dealForm) patch(orig domain.Deal) (domain.DealPatch, error) {
	var p domain.DealPatch
	if title := strings.TrimSpace(f.Title); title != orig.Title {
		p.Title = &title
	}
	value, err := parseMoney(f.Value)
	if err != nil {
		return p, err
	}
	if value != orig.Value {
		p.Value = &value
	}
	prob, err := f.probability()
	if err != nil {
		return p, err
	}
	if prob != nil && *prob != orig.Probability {
		p.Probability = prob
	}
	if f.ContactID != orig.ContactID {
		id := f.ContactID
		p.ContactID = &id
	}
	closeDate, err := parseOptionalDate(f.CloseDate)
	if err != nil {
		return p, err
	}
	switch {
	case closeDate == nil && orig.ExpectedCloseDate != nil:
		p.ClearCloseDate = true
	case closeDate != nil && (orig.ExpectedCloseDate == nil || f.CloseDate != orig.ExpectedCloseDate.Format("2006-01-02")):
		p.ExpectedCloseDate = closeDate
	}
	if f.Notes != orig.Notes {
		notes := f.Notes
		p.Notes = &notes
	}
	if tags := splitTags(f.Tags); strings.Join(tags, ",") != strings.Join(orig.Tags, ",") {
		p.Tags = &tags
	}
	return p, nil
}

// ── contact form ─────────────────────────────────────────────────────────────

type contactForm struct {
	form *huh.Form

	Name, Email, Phone, Company, Position, Tags string
}

func newContactForm() *contactForm {
	f := &contactForm{}
	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&f.Name).Validate(requiredField("name")),
			huh.NewInput().Title("Email").Value(&f.Email).Validate(requiredField("email")),
			huh.NewInput().Title("Phone").Value(&f.Phone),
			huh.NewInput().Title("Company").Value(&f.Company),
			huh.NewInput().Title("Position").Value(&f.Position),
			huh.NewInput().Title("Tags").Placeholder("comma separated").Value(&f.Tags),
		),
	).WithTheme(dealflowHuhTheme()).WithShowHelp(false)
	return f
}

func (f *contactForm) contact() domain.Contact {
	return domain.Contact{
		Name:     f.Name,
		Email:    f.Email,
		Phone:    f.Phone,
		Company:  f.Company,
		Position: f.Position,
		Tags:     splitTags(f.Tags),
	}
}

// ── activity form ────────────────────────────────────────────────────────────

type activityForm struct {
	form *huh.Form

	ContactID   int64
	Type        domain.ActivityType
	Description string
	Minutes     string
}

func newActivityForm(contacts []domain.Contact, contactID int64) *activityForm {
	f := &activityForm{ContactID: contactID, Type: domain.ActivityCall}

	typeOpts := make([]huh.Option[domain.ActivityType], 0, 5)
	for _, t := range domain.ActivityTypes() {
		typeOpts = append(typeOpts, huh.NewOption(domain.Capitalize(string(t)), t))
	}

	var fields []huh.Field
	if contactID == 0 {
		if len(contacts) > 0 {
			f.ContactID = contacts[0].ID
		}
		fields = append(fields, huh.NewSelect[int64]().Title("Contact").Options(contactOptions(contacts)...).Value(&f.ContactID))
	}
	fields = append(fields,
		huh.NewSelect[domain.ActivityType]().Title("Type").Options(typeOpts...).Value(&f.Type),
		huh.NewInput().Title("What happened").Value(&f.Description).Validate(requiredField("description")),
		huh.NewInput().Title("Minutes").Placeholder("optional").Value(&f.Minutes).Validate(validatePositiveInt),
	)

	f.form = huh.NewForm(huh.NewGroup(fields...)).WithTheme(dealflowHuhTheme()).WithShowHelp(false)
	return f
}

func (f *activityForm) activity(now time.Time, dealID *int64) domain.Activity {
	a := domain.Activity{
		Type:        f.Type,
		Description: f.Description,
		Date:        now,
		ContactID:   f.ContactID,
		DealID:      dealID,
	}
	if m, err := strconv.Atoi(strings.TrimSpace(f.Minutes)); err == nil && m > 0 {
		a.DurationMinutes = &m
	}
	return a
}

// logActivityForm opens the activity form. With contactID zero the form asks
// for the contact; dealID ties the activity to a deal when non-nil.
func logActivityForm(state *SharedState, contactID int64, dealID *int64) tea.Cmd {
	app := state.App
	contacts := state.Board.Snapshot().Contacts
	if contactID == 0 && len(contacts) == 0 {
		return outputCmd(formatter.Dim("Add a contact first."))
	}
	f := newActivityForm(contacts, contactID)
	return startWizardCmd(state, "Log activity", f.form, func() tea.Cmd {
		a := f.activity(app.now(), dealID)
		return func() tea.Msg {
			logged, err := app.Activities.Log(context.Background(), a)
			if err != nil {
				return cmdOutputMsg{output: formatter.StyleRed.Render("Error: " + describeError(err))}
			}
			name := ""
			if c, err := app.Contacts.Get(context.Background(), logged.ContactID); err == nil {
				name = c.Name
			}
			return cmdOutputMsg{output: formatter.FormatActivityLogged(logged, name)}
		}
	})
}
