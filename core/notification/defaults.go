package notification

var defaultTemplates = []Template{
	{
		Kind:     KindPassed,
		Language: "en",
		Subject:  "🎉 Exam Results - {{exam_name}}",
		Body: `Dear {{full_name}},

Congratulations! You have successfully passed the {{exam_name}} examination.

📊 Your Results:
• Final Score: {{score}}%
• Passing Score: {{passing_score}}%
• Status: PASSED ✅

Questions Summary:
• Correct Answers: {{correct}}
• Incorrect Answers: {{incorrect}}
• Unanswered: {{unanswered}}

Well done on your achievement! Keep up the excellent work.

Best regards,
HR Department`,
	},
	{
		Kind:     KindFailed,
		Language: "en",
		Subject:  "Exam Results - {{exam_name}}",
		Body: `Dear {{full_name}},

Thank you for completing the {{exam_name}} examination.

📊 Your Results:
• Final Score: {{score}}%
• Passing Score: {{passing_score}}%
• Status: Not Passed

Questions Summary:
• Correct Answers: {{correct}}
• Incorrect Answers: {{incorrect}}
• Unanswered: {{unanswered}}

Don't be discouraged! Every challenge is an opportunity to learn and grow.
We encourage you to review the material and continue improving.

You can do this! 💪

Best regards,
HR Department`,
	},
	{
		Kind:     KindPending,
		Language: "en",
		Subject:  "Exam Submission Confirmed - {{exam_name}}",
		Body: `Dear {{full_name}},

Your {{exam_name}} examination has been successfully submitted.

Your answers are currently under review by our evaluation team.
You will be notified once the grading process is complete.

Thank you for your patience.

Best regards,
HR Department`,
	},
	{
		Kind:     KindPassed,
		Language: "az",
		Subject:  "🎉 İmtahan Nəticələri - {{exam_name}}",
		Body: `Hörmətli {{full_name}},

Təbrik edirik! Siz {{exam_name}} imtahanını uğurla keçmisiniz.

📊 Nəticələriniz:
• Yekun Bal: {{score}}%
• Keçid Balı: {{passing_score}}%
• Status: KEÇDİ ✅

Sualların Xülasəsi:
• Düzgün Cavablar: {{correct}}
• Səhv Cavablar: {{incorrect}}
• Cavabsız: {{unanswered}}

Təbrik edirik! Uğurlarınızın davamını arzulayırıq.

Hörmətlə,
İnsan Resursları Şöbəsi`,
	},
	{
		Kind:     KindFailed,
		Language: "az",
		Subject:  "İmtahan Nəticələri - {{exam_name}}",
		Body: `Hörmətli {{full_name}},

{{exam_name}} imtahanını tamamladığınız üçün təşəkkür edirik.

📊 Nəticələriniz:
• Yekun Bal: {{score}}%
• Keçid Balı: {{passing_score}}%
• Status: Keçmədi

Sualların Xülasəsi:
• Düzgün Cavablar: {{correct}}
• Səhv Cavablar: {{incorrect}}
• Cavabsız: {{unanswered}}

Ruhdan düşməyin! Hər çətinlik öyrənmək və inkişaf etmək üçün fürsətdir.
Materialı yenidən nəzərdən keçirməyi və təkmilləşməyə davam etməyi tövsiyə edirik.

Siz bacararıq! 💪

Hörmətlə,
İnsan Resursları Şöbəsi`,
	},
	{
		Kind:     KindPending,
		Language: "az",
		Subject:  "İmtahan Təqdim Edildi - {{exam_name}}",
		Body: `Hörmətli {{full_name}},

{{exam_name}} imtahanınız uğurla təqdim edilmişdir.

Cavablarınız hazırda qiymətləndirmə komandamız tərəfindən nəzərdən keçirilir.
Qiymətləndirmə prosesi başa çatdıqdan sonra sizə məlumat veriləcək.

Səbriniz üçün təşəkkür edirik.

Hörmətlə,
İnsan Resursları Şöbəsi`,
	},
}

// DefaultTemplates returns the built-in templates, the same rows the email system migration seeds.
func DefaultTemplates() []Template {
	out := make([]Template, len(defaultTemplates))
	copy(out, defaultTemplates)
	return out
}

// DefaultTemplate returns the built-in template for (kind, lang), if any.
func DefaultTemplate(kind Kind, lang string) (Template, bool) {
	for _, tmpl := range defaultTemplates {
		if tmpl.Kind == kind && tmpl.Language == lang {
			return tmpl, true
		}
	}
	return Template{}, false
}
