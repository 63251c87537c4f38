package subagent

const titlePrompt = `**Role:** You name chat conversations.

**Task:** Write a short title for the conversation between a user and an AI assistant below.

**Requirements:**
*   A short descriptive phrase that captures what the conversation is about.
*   Easy to recognize when browsing a list of past chats.
*   English only, no special characters or emojis.
*   If the conversation has no clear topic (for example only greetings), answer with the exact word NONE.

**Example:**
*   "User: hello\nAI: Hi there!" -> <title>NONE</title>

**Output Format:** Answer only with the title inside <title> tags:
<title>Your Suggested Title</title>

**Conversation:**
{{.Chat}}
`

const reviewPrompt = `**Task:** Review the content draft below and produce packaging for publication.

**Instructions:**
1.  **Review the content** for tone consistency, logical structure, factual accuracy,
    clarity and alignment with the campaign brief (if one is included).
2.  **Generate packaging:**
    *   **Title:** a compelling title.
    *   **Meta Description:** one or two sentences for SEO and social sharing.
    *   **Hashtags:** three to five relevant hashtags.
3.  **Feedback (optional):** brief, constructive suggestions. Do not rewrite the content.

**Output Format (Markdown):**

**Review Status:** [Completed / Issues Found (briefly describe)]

**Feedback:**
[Your feedback, or "No major issues found."]

**Generated Packaging:**
*   **Title:** [Generated Title]
*   **Meta Description:** [Generated Meta Description]
*   **Hashtags:** #[tag1] #[tag2] #[tag3] ...

---
**Content for Review ({{.Kind}}):**
{{.Content}}
---
`
