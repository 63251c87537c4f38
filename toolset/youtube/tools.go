package youtube

import (
	"strings"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/tool"
)

// Tool names.
const (
	TranscriptToolName   = "YoutubeVideosTranscriptReaderTool"
	ScriptWriterToolName = "YoutubeVideoScriptWriterTool"
	ScriptReaderToolName = "YoutubeVideoScriptReaderTool"
)

type transcriptArgs struct {
	Links []string `json:"links" jsonschema:"description=YouTube video links or ids" validate:"required,min=1"`
}

type writeArgs struct {
	Title       string   `json:"title" jsonschema:"description=Title or task of the video including the desired length (default ~60s)" validate:"required"`
	Information string   `json:"information" jsonschema:"description=Information the script should be based on" validate:"required"`
	IntelKeys   []string `json:"intel_keys" jsonschema:"description=Keys of the intel briefings to align the script with"`
	Key         string   `json:"key,omitempty" jsonschema:"description=Key to store the script under (default: latest)"`
}

type readArgs struct {
	Key string `json:"key,omitempty" jsonschema:"description=Key of the script; empty selects the most recent one"`
}

// Tools returns the YouTube tools.
func Tools(r *TranscriptReader, w *ScriptWriter) []tool.Tool {
	return []tool.Tool{
		YoutubeVideosTranscriptReaderTool(r),
		YoutubeVideoScriptWriterTool(w),
		YoutubeVideoScriptReaderTool(),
	}
}

// YoutubeVideosTranscriptReaderTool returns the transcripts of videos.
func YoutubeVideosTranscriptReaderTool(r *TranscriptReader) tool.Tool {
	return tool.NewTypedTool(TranscriptToolName,
		"Fetch the transcripts of YouTube videos from their links.",
		func(tc *core.ToolContext, in transcriptArgs) (any, error) {
			return r.Read(tc.Context(), in.Links)
		})
}

// YoutubeVideoScriptWriterTool generates a script from briefings and stores
// it in the shared state.
func YoutubeVideoScriptWriterTool(w *ScriptWriter) tool.Tool {
	return tool.NewTypedTool(ScriptWriterToolName,
		"Write a video script from a title/task, information and the intel briefings stored under intel_keys. The script is stored in the context.",
		func(tc *core.ToolContext, in writeArgs) (any, error) {
			script, missing, err := w.Write(tc.Context(), tc.Briefings(), ScriptRequest{
				Title:       in.Title,
				Information: in.Information,
				IntelKeys:   in.IntelKeys,
			})
			if err != nil {
				return nil, err
			}

			key := in.Key
			if key == "" {
				key = core.DefaultKey
			}
			tc.Scripts().SetScript(key, script)

			var b strings.Builder
			b.WriteString(script)
			b.WriteString("\n\nSuccessfully generated and set the video script in the context.")
			if len(missing) > 0 {
				b.WriteString("\n\nThe following keys were not found in the context: ")
				b.WriteString(strings.Join(missing, ", "))
			}

			return b.String(), nil
		})
}

// YoutubeVideoScriptReaderTool reads a stored script.
func YoutubeVideoScriptReaderTool() tool.Tool {
	return tool.NewTypedTool(ScriptReaderToolName,
		"Read the video script stored in the context.",
		func(tc *core.ToolContext, in readArgs) (any, error) {
			var (
				s  string
				ok bool
			)
			if in.Key == "" {
				_, s, ok = tc.Scripts().LatestScript()
			} else {
				s, ok = tc.Scripts().Script(in.Key)
			}
			if !ok {
				return "No video script found in context.", nil
			}
			return s, nil
		})
}
