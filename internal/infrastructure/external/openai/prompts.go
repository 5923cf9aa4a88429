package openai

const systemPrompt = "You transcribe shop and fuel receipts exactly as printed. You never summarize, translate or correct the text. Always respond with valid JSON."

const transcriptionPrompt = `Transcribe every line of text on this receipt, top to bottom, keeping the original line breaks, spelling, numbers, currency symbols (such as ₹ or Rs) and punctuation.
If the receipt spans several images they are consecutive pages; transcribe them in order.

Return JSON with the following structure:
{
  "raw_text": "the full transcription, lines separated by \n",
  "confidence": number from 0 to 100 describing how legible the receipt was
}

Use an empty raw_text and confidence 0 if the image is not a receipt or is unreadable.`
