package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"pixgallery/pkg/gallery"
	"pixgallery/pkg/log"
	"pixgallery/pkg/settings"

	"gopkg.in/alecthomas/kingpin.v2"
)

const stateDirPerm = 0700

var (
	app         = kingpin.New("gallery", "Terminal gallery for files and albums on the hosting service.")
	proxyURL    = app.Flag("proxy", "Gallery proxy base URL.").Default("http://localhost:8787").Envar("PIXGALLERY_PROXY").String()
	dbPath      = app.Flag("db", "Local state database.").Default(defaultDBPath()).String()
	upstreamURL = app.Flag("upstream", "Upstream API root for direct media links. Asked from the proxy when empty.").String()
	debug       = app.Flag("debug", "Enable debug logging.").Bool()

	loginCmd = app.Command("login", "Check an API key and store it.")
	loginKey = loginCmd.Flag("key", "API key. Prompted for when omitted.").String()

	logoutCmd = app.Command("logout", "Forget the stored API key.")

	showCmd  = app.Command("show", "Show files and albums.").Default()
	showGrid = showCmd.Flag("grid", "Use the grid view this time.").Bool()
	showList = showCmd.Flag("list", "Use the list view this time.").Bool()

	watchCmd      = app.Command("watch", "Show files and albums and refresh them in the background.")
	watchInterval = watchCmd.Flag("interval", "Refresh interval.").Default(gallery.DefaultRefreshInterval.String()).Duration()

	albumCmd = app.Command("album", "Album operations.")

	albumShowCmd = albumCmd.Command("show", "Show one album with its files.")
	albumShowID  = albumShowCmd.Arg("album", "Album id.").String()

	albumCreateCmd   = albumCmd.Command("create", "Create an album.")
	albumCreateTitle = albumCreateCmd.Flag("title", "Album title. Prompted for when omitted.").String()
	albumCreateDesc  = albumCreateCmd.Flag("description", "Album description.").String()
	albumCreateFiles = albumCreateCmd.Arg("files", "File ids to put in the album. Picked interactively when omitted.").Strings()

	albumAddCmd  = albumCmd.Command("add", "Add a file to an album.")
	albumAddID   = albumAddCmd.Arg("album", "Album id.").String()
	albumAddFile = albumAddCmd.Arg("file", "File id.").String()

	albumRemoveCmd  = albumCmd.Command("remove", "Remove a file from an album.")
	albumRemoveID   = albumRemoveCmd.Arg("album", "Album id.").String()
	albumRemoveFile = albumRemoveCmd.Arg("file", "File id.").String()

	albumDeleteCmd = albumCmd.Command("delete", "Delete an album. Its files are kept.")
	albumDeleteID  = albumDeleteCmd.Arg("album", "Album id.").String()
	albumDeleteYes = albumDeleteCmd.Flag("yes", "Do not ask for confirmation.").Short('y').Bool()

	deleteFileCmd = app.Command("delete-file", "Delete a file from the account.")
	deleteFileID  = deleteFileCmd.Arg("file", "File id.").String()
	deleteFileYes = deleteFileCmd.Flag("yes", "Do not ask for confirmation.").Short('y').Bool()

	previewCmd   = app.Command("preview", "Check how files would be previewed.")
	previewFiles = previewCmd.Arg("files", "File ids. All files when omitted.").Strings()

	settingsCmd      = app.Command("settings", "Display preferences.")
	settingsShowCmd  = settingsCmd.Command("show", "Print the current preferences.").Default()
	settingsSetCmd   = settingsCmd.Command("set", "Change one preference.")
	settingsSetField = settingsSetCmd.Arg("field", "Preference name.").Required().Enum(settings.Fields()...)
	settingsSetValue = settingsSetCmd.Arg("value", "New value. Picked interactively when omitted.").String()
	settingsResetCmd = settingsCmd.Command("reset", "Restore the default preferences.")

	rawCmd    = app.Command("raw", "Send a call through the generic proxy route and print the answer.")
	rawMethod = rawCmd.Flag("method", "HTTP method.").Short('X').Default(http.MethodGet).Enum(http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete)
	rawData   = rawCmd.Flag("data", "Request body.").Short('d').String()
	rawPath   = rawCmd.Arg("path", "Upstream API path, e.g. /user.").Required().String()
)

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "pixgallery.db"
	}
	return filepath.Join(home, ".pixgallery", "state.db")
}

func main() {
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	if *debug {
		log.SetDebugMode()
		log.Debug().Msg("Debug mode enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session, err := openSession(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start")
	}
	defer session.Close()

	if err := run(ctx, session, cmd); err != nil {
		fmt.Fprintln(os.Stderr, gallery.Hint(err))
		log.Debug().Err(err).Str("command", cmd).Msg("Command failed")
		session.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, s *session, cmd string) error {
	switch cmd {
	case loginCmd.FullCommand():
		return s.login(ctx, *loginKey)
	case logoutCmd.FullCommand():
		return s.logout(ctx)
	case showCmd.FullCommand():
		return s.show(ctx, *showGrid, *showList)
	case watchCmd.FullCommand():
		return s.watch(ctx, *watchInterval)
	case albumShowCmd.FullCommand():
		return s.albumShow(ctx, *albumShowID)
	case albumCreateCmd.FullCommand():
		return s.albumCreate(ctx, *albumCreateTitle, *albumCreateDesc, *albumCreateFiles)
	case albumAddCmd.FullCommand():
		return s.albumAdd(ctx, *albumAddID, *albumAddFile)
	case albumRemoveCmd.FullCommand():
		return s.albumRemove(ctx, *albumRemoveID, *albumRemoveFile)
	case albumDeleteCmd.FullCommand():
		return s.albumDelete(ctx, *albumDeleteID, *albumDeleteYes)
	case deleteFileCmd.FullCommand():
		return s.deleteFile(ctx, *deleteFileID, *deleteFileYes)
	case previewCmd.FullCommand():
		return s.preview(ctx, *previewFiles)
	case settingsShowCmd.FullCommand():
		return s.settingsShow()
	case settingsSetCmd.FullCommand():
		return s.settingsSet(ctx, *settingsSetField, *settingsSetValue)
	case settingsResetCmd.FullCommand():
		return s.settingsReset(ctx)
	case rawCmd.FullCommand():
		return s.raw(ctx, *rawMethod, *rawPath, *rawData)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func ensureStateDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), stateDirPerm)
}
