package cli

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/appser/appser-store/internal/render"
	"github.com/appser/appser-store/internal/votes"
	"github.com/appser/appser-store/pkg/models"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const barWidth = 20

var (
	listCategory string
	listLimit    int
)

var appCmd = &cobra.Command{
	Use:   "app",
	Short: "App listing commands",
	Long:  `Show, list, download, like and share app listings.`,
}

var appShowCmd = &cobra.Command{
	Use:   "show [app-id]",
	Short: "Show an app listing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		book, err := votes.Load(cfg.Votes.Path)
		if err != nil {
			return err
		}
		renderer := render.New(render.Options{Locale: cfg.Display.Locale, PublicURL: cfg.ServerURL()})
		if err := showApp(newAPIClient(cfg.ServerURL(), ""), renderer, book, args[0], cmd.OutOrStdout()); err != nil {
			printError(err.Error())
			return err
		}
		return nil
	},
}

var appListCmd = &cobra.Command{
	Use:   "list",
	Short: "List app listings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		renderer := render.New(render.Options{Locale: cfg.Display.Locale})
		if err := listApps(newAPIClient(cfg.ServerURL(), ""), renderer, listCategory, listLimit, cmd.OutOrStdout()); err != nil {
			printError("List failed: " + err.Error())
			return err
		}
		return nil
	},
}

var appDownloadCmd = &cobra.Command{
	Use:   "download [app-id]",
	Short: "Count a download and print the file URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := downloadApp(newAPIClient(cfg.ServerURL(), ""), args[0], cmd.OutOrStdout()); err != nil {
			printError("Download failed: " + err.Error())
			return err
		}
		return nil
	},
}

var appLikeCmd = &cobra.Command{
	Use:   "like [app-id]",
	Short: "Like an app once",
	Long:  `Like an app. The local vote file remembers the like so it is sent once.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if _, err := likeApp(newAPIClient(cfg.ServerURL(), ""), cfg.Votes.Path, args[0], cmd.OutOrStdout()); err != nil {
			printError("Like failed: " + err.Error())
			return err
		}
		return nil
	},
}

var appShareCmd = &cobra.Command{
	Use:   "share [app-id]",
	Short: "Print the share text of an app",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := shareApp(newAPIClient(cfg.ServerURL(), ""), args[0], cmd.OutOrStdout()); err != nil {
			printError("Share failed: " + err.Error())
			return err
		}
		return nil
	},
}

var appImportCmd = &cobra.Command{
	Use:   "import [file.yaml]",
	Short: "Publish listings from a YAML file",
	Long:  `Create or update every listing in the file. Requires an admin token (appser token issue).`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Admin.Token == "" {
			printError("Admin token required")
			fmt.Println("Run: appser token issue")
			return fmt.Errorf("not authorized")
		}
		n, err := importApps(newAPIClient(cfg.ServerURL(), cfg.Admin.Token), args[0], cmd.OutOrStdout())
		if err != nil {
			printError("Import failed: " + err.Error())
			return err
		}
		printSuccess(fmt.Sprintf("Imported %d app(s)", n))
		return nil
	},
}

func init() {
	appListCmd.Flags().StringVar(&listCategory, "category", "", "Only list apps of this category")
	appListCmd.Flags().IntVar(&listLimit, "limit", 20, "Maximum number of apps")

	appCmd.AddCommand(appShowCmd)
	appCmd.AddCommand(appListCmd)
	appCmd.AddCommand(appDownloadCmd)
	appCmd.AddCommand(appLikeCmd)
	appCmd.AddCommand(appShareCmd)
	appCmd.AddCommand(appImportCmd)
}

func appPath(id string) string {
	return "/api/apps/" + url.PathEscape(id)
}

func showApp(c *apiClient, r *render.Renderer, book votes.Book, id string, w io.Writer) error {
	var app models.App
	if err := c.get(appPath(id), &app); err != nil {
		return err
	}
	var list models.ReviewList
	reviewsErr := c.get(appPath(id)+"/reviews", &list)

	v := r.Detail(&app, book).WithReviews(list.Reviews, reviewsErr)

	fmt.Fprintf(w, "%s (%s)\n", v.Name, v.Category)
	fmt.Fprintf(w, "📦 Size: %s • %s\n", v.Size, v.InternetLabel)
	fmt.Fprintf(w, "Downloads: %s • Likes: %s\n", v.DownloadsText, v.LikesText)
	fmt.Fprintf(w, "Rating: %s (%d votes) %s\n", v.RatingText, v.RatingCount, v.Stars.Glyphs)
	if !v.HasFile {
		fmt.Fprintf(w, "Download: %s\n", render.MsgNoFile)
	}
	if v.Liked {
		fmt.Fprintln(w, "You already liked this app")
	}
	for _, l := range v.StoreLinks {
		fmt.Fprintf(w, "  %s: %s\n", l.Name, l.URL)
	}

	fmt.Fprintf(w, "\nRatings (%d reviews)\n", v.ReviewTotal)
	for _, b := range v.Bars {
		fmt.Fprintf(w, "  %d %-*s %d\n", b.Stars, barWidth, strings.Repeat("█", int(b.Fraction*barWidth+0.5)), b.Count)
	}

	fmt.Fprintln(w, "\nApp information")
	for _, item := range v.Info {
		value := item.Value
		if item.Link != "" {
			value = item.Link
		}
		fmt.Fprintf(w, "  %s %s: %s\n", item.Icon, item.Title, value)
	}

	if v.Description != "" {
		fmt.Fprintf(w, "\n%s\n", v.Description)
	}

	fmt.Fprintln(w, "\nUser reviews")
	printReviews(w, v)
	return nil
}

func printReviews(w io.Writer, v *render.DetailView) {
	switch {
	case v.ReviewsError:
		fmt.Fprintln(w, "  "+render.MsgReviewsError)
	case len(v.Reviews) == 0:
		fmt.Fprintln(w, "  "+render.MsgNoReviews)
	default:
		for _, rv := range v.Reviews {
			fmt.Fprintf(w, "  %s  %s\n    %s\n", rv.Stars, rv.Date, rv.Comment)
		}
	}
}

func listApps(c *apiClient, r *render.Renderer, category string, limit int, w io.Writer) error {
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	var res struct {
		Apps  []*models.App `json:"apps"`
		Count int           `json:"count"`
	}
	if err := c.get("/api/apps?"+q.Encode(), &res); err != nil {
		return err
	}
	if res.Count == 0 {
		fmt.Fprintln(w, "No apps found")
		return nil
	}

	index := r.Index(res.Apps, category)
	fmt.Fprintf(w, "Found %d app(s):\n\n", res.Count)
	for i, item := range index.Apps {
		fmt.Fprintf(w, "%d. %s\n", i+1, item.Name)
		fmt.Fprintf(w, "   ID: %s\n", item.ID)
		fmt.Fprintf(w, "   Category: %s\n", item.Category)
		fmt.Fprintf(w, "   %s %s • ⬇️ %s\n\n", item.Stars.Glyphs, item.RatingText, item.DownloadsText)
	}
	fmt.Fprintln(w, "Details: appser app show <app-id>")
	return nil
}

func downloadApp(c *apiClient, id string, w io.Writer) error {
	var res struct {
		URL     string `json:"url"`
		Counted bool   `json:"counted"`
	}
	if err := c.post(appPath(id)+"/download", nil, &res); err != nil {
		return err
	}
	fmt.Fprintln(w, res.URL)
	return nil
}

// likeApp sends a like unless the vote file already records one for id. It
// reports whether a like was sent.
func likeApp(c *apiClient, votesPath, id string, w io.Writer) (bool, error) {
	book, err := votes.Load(votesPath)
	if err != nil {
		return false, err
	}
	if book.Liked(id) {
		fmt.Fprintln(w, "You already liked this app")
		return false, nil
	}

	var res struct {
		Likes int64 `json:"likes"`
	}
	if err := c.post(appPath(id)+"/like", nil, &res); err != nil {
		return false, err
	}
	book.MarkLiked(id)
	if err := votes.Save(votesPath, book); err != nil {
		return true, err
	}
	fmt.Fprintf(w, "❤️ Liked (%d)\n", res.Likes)
	return true, nil
}

func shareApp(c *apiClient, id string, w io.Writer) error {
	var share render.ShareData
	if err := c.get(appPath(id)+"/share", &share); err != nil {
		return err
	}
	fmt.Fprintln(w, share.Title)
	if share.Text != "" {
		fmt.Fprintln(w, share.Text)
	}
	fmt.Fprintln(w, share.URL)
	return nil
}

type importFile struct {
	Apps []models.App `yaml:"apps"`
}

func loadImportFile(path string) ([]models.App, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var f importFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for i, app := range f.Apps {
		if app.ID == "" || app.Name == "" {
			return nil, fmt.Errorf("entry %d: id and name are required", i+1)
		}
	}
	return f.Apps, nil
}

func importApps(c *apiClient, path string, w io.Writer) (int, error) {
	apps, err := loadImportFile(path)
	if err != nil {
		return 0, err
	}
	for i := range apps {
		if err := c.put(appPath(apps[i].ID), &apps[i], nil); err != nil {
			return i, fmt.Errorf("%s: %w", apps[i].ID, err)
		}
		fmt.Fprintf(w, "  %s ✓\n", apps[i].ID)
	}
	return len(apps), nil
}
