package panel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/patitas-adopcion/apiserver/internal/client"
	"github.com/patitas-adopcion/apiserver/types"
)

const (
	callTimeout        = 15 * time.Second
	defaultLogoutDelay = 3 * time.Second
)

// API is the subset of the listing API the panel drives. *client.Client
// satisfies it.
type API interface {
	Login(ctx context.Context, username, password string) (string, error)
	Listings(ctx context.Context, shelterCode string) ([]types.Listing, error)
	CreateListing(ctx context.Context, listing types.Listing) (int, error)
	UpdateListing(ctx context.Context, id int, listing types.Listing) error
	DeleteListing(ctx context.Context, id int) error
	ShelterCodes(ctx context.Context) ([]string, error)
	Upload(ctx context.Context, filename string, data []byte) (string, error)
}

type Options struct {
	// PublicURL is where the user is sent after logging out.
	PublicURL string

	LogoutDelay time.Duration
	ToastTTL    time.Duration
}

type screen int

const (
	screenLogin screen = iota
	screenMain
)

type focus int

const (
	focusList focus = iota
	focusForm
)

// fileField is the index of the local image path input, after the form fields.
const fileField = int(fieldCount)

type (
	loginResultMsg struct {
		role string
		err  error
	}
	listingsLoadedMsg struct {
		listings []types.Listing
		err      error
	}
	codesLoadedMsg struct {
		codes []string
		err   error
	}
	submittedMsg struct {
		action Action
		err    error
	}
	deletedMsg struct{ err error }
	uploadedMsg struct {
		url string
		err error
	}
	logoutMsg struct{}
)

// Model is the bubbletea model of the admin panel.
type Model struct {
	api    API
	opts   Options
	styles styles

	screen     screen
	login      [2]textinput.Model
	loginFocus int
	loginErr   string
	role       string

	machine *Machine
	inputs  [fieldCount]textinput.Model
	file    textinput.Model
	focus   focus
	field   int
	formErr string

	listings []types.Listing
	cursor   int
	codes    []string
	filter   string
	loadErr  string

	toasts     toasts
	loggingOut bool
	exitURL    string
	quitting   bool

	width int
}

func New(api API, opts Options) Model {
	if opts.LogoutDelay <= 0 {
		opts.LogoutDelay = defaultLogoutDelay
	}

	m := Model{
		api:     api,
		opts:    opts,
		styles:  defaultStyles(),
		machine: NewMachine(),
		toasts:  toasts{ttl: opts.ToastTTL},
	}

	m.login[0] = newInput("Usuario")
	m.login[1] = newInput("Contraseña")
	m.login[1].EchoMode = textinput.EchoPassword
	m.login[0].Focus()

	for i := range m.inputs {
		m.inputs[i] = newInput(Field(i).Label())
	}
	m.file = newInput("Ruta de la imagen a subir")
	return m
}

func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = ""
	ti.Width = 40
	ti.CharLimit = 512
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

// ExitURL is set once the user saved and logged out.
func (m Model) ExitURL() string { return m.exitURL }

// Machine exposes the form state machine.
func (m Model) Machine() *Machine { return m.machine }

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case toastExpiredMsg:
		m.toasts.dismiss(msg.id)
		return m, nil

	case loginResultMsg:
		if msg.err != nil {
			m.loginErr = apiMessage(msg.err, "Error en el servidor")
			return m, nil
		}
		m.role = msg.role
		m.loginErr = ""
		m.screen = screenMain
		m.login[1].SetValue("")
		return m, tea.Batch(m.fetchListings(), m.fetchCodes())

	case listingsLoadedMsg:
		if msg.err != nil {
			m.loadErr = "Error al obtener mascotas"
			return m, nil
		}
		m.loadErr = ""
		m.listings = msg.listings
		if m.cursor >= len(m.listings) {
			m.cursor = max(len(m.listings)-1, 0)
		}
		return m, nil

	case codesLoadedMsg:
		if msg.err == nil {
			m.codes = msg.codes
		}
		return m, nil

	case submittedMsg:
		return m.handleSubmitted(msg)

	case deletedMsg:
		if msg.err != nil {
			return m, m.toasts.push(ToastError, "Error al eliminar")
		}
		return m, tea.Batch(m.toasts.push(ToastInfo, "eliminado correctamente"), m.fetchListings())

	case uploadedMsg:
		if msg.err != nil {
			return m, m.toasts.push(ToastError, "Error al subir la imagen")
		}
		if err := m.machine.SetField(FieldImageURL, msg.url); err == nil {
			m.file.SetValue("")
			m.syncInputs()
		}
		return m, m.toasts.push(ToastSuccess, "Imagen subida")

	case logoutMsg:
		m.exitURL = m.opts.PublicURL
		m.quitting = true
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.loggingOut {
			return m, nil
		}
		if m.screen == screenLogin {
			return m.updateLogin(msg)
		}
		return m.updateMain(msg)
	}
	return m, nil
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		m.login[m.loginFocus].Blur()
		m.loginFocus = 1 - m.loginFocus
		m.login[m.loginFocus].Focus()
		return m, nil
	case "enter":
		username := strings.TrimSpace(m.login[0].Value())
		password := m.login[1].Value()
		if username == "" || password == "" {
			m.loginErr = "Faltan credenciales"
			return m, nil
		}
		return m, m.doLogin(username, password)
	}

	var cmd tea.Cmd
	m.login[m.loginFocus], cmd = m.login[m.loginFocus].Update(msg)
	return m, cmd
}

func (m Model) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+l":
		return m.saveAndLogout()
	case "tab":
		if m.focus == focusList {
			m.focus = focusForm
		} else {
			m.focus = focusList
		}
		m.refocus()
		return m, nil
	}

	if m.focus == focusList {
		return m.updateList(msg)
	}
	return m.updateForm(msg)
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.listings)-1 {
			m.cursor++
		}
	case "enter", "e":
		listing, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := m.machine.Edit(listing); err != nil {
			return m, nil
		}
		m.formErr = ""
		m.syncInputs()
		m.focus = focusForm
		m.field = 0
		m.refocus()
	case "d":
		listing, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.doDelete(listing.ID)
	case "f", "F":
		step := 1
		if msg.String() == "F" {
			step = -1
		}
		m.filter = cycleOption(append([]string{""}, m.codes...), m.filter, step)
		m.cursor = 0
		return m, m.fetchListings()
	case "r":
		return m, tea.Batch(m.fetchListings(), m.fetchCodes())
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "shift+tab":
		m.field = (m.field + fileField) % (fileField + 1)
		m.refocus()
		return m, nil
	case "down":
		m.field = (m.field + 1) % (fileField + 1)
		m.refocus()
		return m, nil
	case "ctrl+s":
		return m.submit()
	case "esc":
		if err := m.machine.Cancel(); err == nil {
			m.formErr = ""
			m.syncInputs()
		}
		return m, nil
	case "ctrl+u":
		path := strings.TrimSpace(m.file.Value())
		if path == "" {
			return m, m.toasts.push(ToastError, "Indique la ruta de la imagen")
		}
		return m, m.doUpload(path)
	}

	if m.field == fileField {
		var cmd tea.Cmd
		m.file, cmd = m.file.Update(msg)
		return m, cmd
	}

	field := Field(m.field)
	if options := field.Options(); options != nil {
		switch msg.String() {
		case "left", "right", " ":
			step := 1
			if msg.String() == "left" {
				step = -1
			}
			next := cycleOption(options, m.machine.Form().Get(field), step)
			if err := m.machine.SetField(field, next); err == nil {
				m.inputs[field].SetValue(next)
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[field], cmd = m.inputs[field].Update(msg)
	if err := m.machine.SetField(field, m.inputs[field].Value()); err != nil {
		m.inputs[field].SetValue(m.machine.Form().Get(field))
	}
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	req, err := m.machine.Submit()
	if err != nil {
		if errors.Is(err, ErrInvalidAge) {
			m.formErr = err.Error()
		}
		return m, nil
	}
	m.formErr = ""
	return m, m.doSubmit(req)
}

func (m Model) handleSubmitted(msg submittedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		_ = m.machine.Fail(msg.err)
		return m, m.toasts.push(ToastError, apiMessage(msg.err, "Ocurrió un error al guardar"))
	}

	_ = m.machine.Succeed()
	m.syncInputs()
	text := "Agregado"
	if msg.action == ActionUpdate {
		text = "Actualizado"
	}
	return m, tea.Batch(m.toasts.push(ToastSuccess, text), m.fetchListings())
}

// saveAndLogout leaves after a fixed delay whether or not the form is dirty.
// The notice is shown only when the form differs from the record it was
// loaded from; those edits are not submitted.
func (m Model) saveAndLogout() (tea.Model, tea.Cmd) {
	m.loggingOut = true
	delay := tea.Tick(m.opts.LogoutDelay, func(time.Time) tea.Msg { return logoutMsg{} })
	if !m.machine.Dirty() {
		return m, delay
	}
	return m, tea.Batch(m.toasts.push(ToastSuccess, "Guardando cambios..."), delay)
}

func (m Model) selected() (types.Listing, bool) {
	if m.cursor < 0 || m.cursor >= len(m.listings) {
		return types.Listing{}, false
	}
	return m.listings[m.cursor], true
}

// syncInputs copies the machine's form into the text inputs.
func (m *Model) syncInputs() {
	form := m.machine.Form()
	for i := range m.inputs {
		m.inputs[i].SetValue(form.Get(Field(i)))
	}
}

func (m *Model) refocus() {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.file.Blur()
	if m.focus != focusForm {
		return
	}
	if m.field == fileField {
		m.file.Focus()
		return
	}
	m.inputs[m.field].Focus()
}

func (m Model) doLogin(username, password string) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		role, err := api.Login(ctx, username, password)
		return loginResultMsg{role: role, err: err}
	}
}

func (m Model) fetchListings() tea.Cmd {
	api, filter := m.api, m.filter
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		listings, err := api.Listings(ctx, filter)
		return listingsLoadedMsg{listings: listings, err: err}
	}
}

func (m Model) fetchCodes() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		codes, err := api.ShelterCodes(ctx)
		return codesLoadedMsg{codes: codes, err: err}
	}
}

func (m Model) doSubmit(req Request) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		var err error
		if req.Action == ActionUpdate {
			err = api.UpdateListing(ctx, req.ID, req.Listing)
		} else {
			_, err = api.CreateListing(ctx, req.Listing)
		}
		return submittedMsg{action: req.Action, err: err}
	}
}

func (m Model) doDelete(id int) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		return deletedMsg{err: api.DeleteListing(ctx, id)}
	}
}

func (m Model) doUpload(path string) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return uploadedMsg{err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		url, err := api.Upload(ctx, filepath.Base(path), data)
		return uploadedMsg{url: url, err: err}
	}
}

// apiMessage prefers the message the API answered with.
func apiMessage(err error, fallback string) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.screen == screenLogin {
		return m.viewLogin()
	}
	return m.viewMain()
}

func (m Model) viewLogin() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Patitas · Iniciar sesión"))
	b.WriteString("\n\n")
	labels := [2]string{"Usuario", "Contraseña"}
	for i, input := range m.login {
		label := m.styles.Label.Render(labels[i])
		if i == m.loginFocus {
			label = m.styles.Focused.Inherit(m.styles.Label).Render("> " + labels[i])
		}
		b.WriteString(label + input.View() + "\n")
	}
	if m.loginErr != "" {
		b.WriteString("\n" + m.styles.Error.Render(m.loginErr) + "\n")
	}
	b.WriteString("\n" + m.styles.Muted.Render("tab: cambiar campo · enter: ingresar · ctrl+c: salir"))
	return b.String()
}

func (m Model) viewMain() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Panel de Administracion"))
	if m.role != "" {
		b.WriteString(m.styles.Muted.Render(" (" + m.role + ")"))
	}
	b.WriteString("\n")
	for _, t := range m.toasts.items {
		b.WriteString(m.styles.toast(t.Kind).Render(t.Text) + "\n")
	}
	b.WriteString("\n")

	form := m.viewForm()
	list := m.viewList()
	if m.width >= 110 {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, form, " ", list))
	} else {
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, form, list))
	}

	b.WriteString("\n" + m.styles.Muted.Render(
		"tab: formulario/listado · e: editar · d: eliminar · f: filtrar · ctrl+s: guardar · esc: descartar · ctrl+u: subir imagen · ctrl+l: guardar cambios y cerrar sesión"))
	return b.String()
}

func (m Model) viewForm() string {
	var b strings.Builder
	title := "Añadir"
	if m.machine.EditingID() != 0 {
		title = "Modificar"
	}
	b.WriteString(m.styles.Subtitle.Render(title))
	if m.machine.Dirty() {
		b.WriteString(" " + m.styles.Dirty.Render("cambios sin guardar"))
	}
	if m.machine.State() == Submitting {
		b.WriteString(" " + m.styles.Muted.Render("guardando..."))
	}
	b.WriteString("\n")

	for i := range m.inputs {
		field := Field(i)
		value := m.inputs[i].View()
		if field.Options() != nil {
			value = m.machine.Form().Get(field)
			if value == "" {
				value = m.styles.Muted.Render("Seleccione")
			}
			value = "‹ " + value + " ›"
		}
		b.WriteString(m.fieldLabel(i, field.Label()) + value + "\n")
	}
	b.WriteString(m.fieldLabel(fileField, "Subir archivo") + m.file.View() + "\n")

	if m.formErr != "" {
		b.WriteString(m.styles.Error.Render(m.formErr) + "\n")
	}
	return m.styles.Pane.Render(b.String())
}

func (m Model) fieldLabel(idx int, label string) string {
	if m.focus == focusForm && m.field == idx {
		return m.styles.Focused.Inherit(m.styles.Label).Render("> " + label)
	}
	return m.styles.Label.Render("  " + label)
}

func (m Model) viewList() string {
	var b strings.Builder
	b.WriteString(m.styles.Subtitle.Render("Listado de animales"))
	filter := m.filter
	if filter == "" {
		filter = "Todos"
	}
	b.WriteString("  Filtrar por código: " + filter + "\n")

	if m.loadErr != "" {
		b.WriteString(m.styles.Error.Render(m.loadErr) + "\n")
	}
	if len(m.listings) == 0 {
		b.WriteString(m.styles.Muted.Render("Sin mascotas") + "\n")
	}
	for i, l := range m.listings {
		line := fmt.Sprintf("Cod: %s · %s · %s · %s",
			orUnavailable(l.ShelterCode), orUnavailable(l.Name), orUnavailable(l.Age), orUnavailable(string(l.Sex)))
		if l.ImageURL != nil {
			line += " · [img]"
		}
		if m.focus == focusList && i == m.cursor {
			b.WriteString(m.styles.Selected.Render("> "+line) + "\n")
			continue
		}
		b.WriteString("  " + line + "\n")
	}
	return m.styles.Pane.Render(b.String())
}

func orUnavailable(s string) string {
	if s == "" {
		return "No disponible"
	}
	return s
}
