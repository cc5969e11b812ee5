package cli

import (
	"fmt"
	"io"

	"github.com/appser/appser-store/internal/listing"
	"github.com/appser/appser-store/internal/render"
	"github.com/appser/appser-store/internal/votes"
	"github.com/appser/appser-store/pkg/models"
	"github.com/spf13/cobra"
)

var (
	reviewStars   int
	reviewComment string
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review commands",
	Long:  `List the reviews of an app or publish a new one.`,
}

var reviewListCmd = &cobra.Command{
	Use:   "list [app-id]",
	Short: "List the latest reviews of an app",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return listReviews(newAPIClient(cfg.ServerURL(), ""), args[0], cmd.OutOrStdout())
	},
}

var reviewAddCmd = &cobra.Command{
	Use:   "add [app-id]",
	Short: "Publish a review",
	Long:  `Publish a star rating (1-5) with a comment of 5 to 280 characters.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		req := models.SubmitReviewRequest{Stars: reviewStars, Comment: reviewComment}
		if err := addReview(newAPIClient(cfg.ServerURL(), ""), cfg.Votes.Path, args[0], req, cmd.OutOrStdout()); err != nil {
			printError(err.Error())
			return err
		}
		printSuccess(render.MsgReviewPosted)
		return nil
	},
}

func init() {
	reviewAddCmd.Flags().IntVarP(&reviewStars, "stars", "s", 0, "Rating from 1 to 5")
	reviewAddCmd.Flags().StringVarP(&reviewComment, "comment", "m", "", "Review text")

	reviewCmd.AddCommand(reviewListCmd)
	reviewCmd.AddCommand(reviewAddCmd)
}

func listReviews(c *apiClient, id string, w io.Writer) error {
	var list models.ReviewList
	if err := c.get(appPath(id)+"/reviews", &list); err != nil {
		if apiErr, ok := err.(*apiError); ok && apiErr.Message == render.MsgNotFound {
			printError(render.MsgNotFound)
			return err
		}
		fmt.Fprintln(w, render.MsgReviewsError)
		return err
	}
	if len(list.Reviews) == 0 {
		fmt.Fprintln(w, render.MsgNoReviews)
		return nil
	}
	for _, rv := range list.Reviews {
		line := render.ReviewLine(rv)
		fmt.Fprintf(w, "%s  %s\n  %s\n", line.Stars, line.Date, line.Comment)
	}
	return nil
}

// addReview validates locally the same way the server does, so an invalid
// review never leaves the machine.
func addReview(c *apiClient, votesPath, id string, req models.SubmitReviewRequest, w io.Writer) error {
	comment, err := listing.ValidateReview(req.Stars, req.Comment)
	if err != nil {
		return err
	}
	req.Comment = comment

	var res models.SubmitReviewResponse
	if err := c.post(appPath(id)+"/reviews", req, &res); err != nil {
		return err
	}

	book, err := votes.Load(votesPath)
	if err == nil {
		book.MarkRated(id)
		err = votes.Save(votesPath, book)
	}
	if err != nil {
		fmt.Fprintln(w, "Warning: failed to update the local vote file")
	}

	fmt.Fprintf(w, "Rating: %s (%d votes)\n", render.Rating(res.Rating.Average), res.Rating.TotalCount)
	return nil
}
